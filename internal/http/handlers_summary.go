package http

import (
	"fmt"
	"net/http"

	"carteira/internal/core"
	"carteira/internal/services"
)

type summaryResponse struct {
	Profile string `json:"profile"`
	Period  string `json:"period"`
	core.Summary
}

func summaryKey(v services.View) string {
	return fmt.Sprintf("%s|%s|%d", v.Active, v.Period, v.Version)
}

// cachedSummary caches summaries per view. Any mutation yields a new view,
// so stale entries are never read back and simply age out.
func (s *Server) cachedSummary() (services.View, core.Summary) {
	view := s.store.View()
	key := summaryKey(view)
	if sum, ok := s.summaryCache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.IncCacheHit(summaryCacheName)
		}
		return view, sum
	}
	if s.metrics != nil {
		s.metrics.IncCacheMiss(summaryCacheName)
	}
	sum := s.store.Summary()
	s.summaryCache.Set(key, sum)
	return view, sum
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, sum := s.cachedSummary()
	NewJSONResponse().Body(summaryResponse{
		Profile: view.Active,
		Period:  view.Period.String(),
		Summary: sum,
	}).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			ErrorResponse(http.StatusServiceUnavailable, "backend not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
