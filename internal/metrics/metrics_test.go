package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveHTTP("GET", "/summary", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "/summary", 200, 20*time.Millisecond)
	m.ObserveHTTP("POST", "/entries/{kind}", 422, time.Millisecond)
	m.IncPersistFailure()
	m.ObservePublish(nil)
	m.ObservePublish(errors.New("down"))
	m.ObserveHandled(nil)
	m.IncCacheHit("summary")
	m.IncCacheMiss("summary")
	m.IncCacheMiss("summary")
	m.SetProfiles(3)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"summary 200", testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/summary", "200")), 2},
		{"entries 422", testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/entries/{kind}", "422")), 1},
		{"persist failures", testutil.ToFloat64(m.persistFailures), 1},
		{"publish ok", testutil.ToFloat64(m.syncPublished.WithLabelValues("ok")), 1},
		{"publish error", testutil.ToFloat64(m.syncPublished.WithLabelValues("error")), 1},
		{"handled ok", testutil.ToFloat64(m.syncHandled.WithLabelValues("ok")), 1},
		{"cache hit", testutil.ToFloat64(m.cacheLookups.WithLabelValues("summary", "hit")), 1},
		{"cache miss", testutil.ToFloat64(m.cacheLookups.WithLabelValues("summary", "miss")), 2},
		{"profiles", testutil.ToFloat64(m.profiles), 3},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.IncPersistFailure()
	if testutil.ToFloat64(b.persistFailures) != 0 {
		t.Fatal("registries must not share collectors")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SetProfiles(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "carteira_profiles 2") {
		t.Fatalf("gauge missing from output:\n%s", body)
	}
}
