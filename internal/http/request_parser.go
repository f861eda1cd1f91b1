// Package http serves the JSON API over the profile store.
//
// This file parses request bodies, which may be JSON objects or
// form-encoded, into trimmed string values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"carteira/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

var ErrBadRequest = errors.New("malformed request")

// RequestBodyParser handles JSON and form-encoded bodies.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object and as a
// form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrBadRequest, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrBadRequest, p.err)
	}
	return p.err
}

// Get returns a trimmed string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Amount parses key as a money amount. Both "12.50" and "12,50" are
// accepted.
func (p *RequestBodyParser) Amount(key string) (float64, error) {
	amount, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return amount, nil
}

// Int parses key as an integer, wrapping failures with invalid.
func (p *RequestBodyParser) Int(key string, invalid error) (int, error) {
	v, err := strconv.Atoi(p.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, p.Get(key), invalid)
	}
	return v, nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ParsePeriod reads year and month (1-12) from the body.
func (p *RequestBodyParser) ParsePeriod() (core.Period, error) {
	year, err := p.Int("year", core.ErrInvalidPeriod)
	if err != nil {
		return core.Period{}, err
	}
	month, err := p.Int("month", core.ErrInvalidPeriod)
	if err != nil {
		return core.Period{}, err
	}
	period := core.Period{Year: year, Month: time.Month(month)}
	if err := period.Validate(); err != nil {
		return core.Period{}, err
	}
	return period, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseEntryID reads the {id} path value.
func parseEntryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("entry id %q: %w", r.PathValue("id"), core.ErrEntryNotFound)
	}
	return id, nil
}
