// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request
// parameters. Missing parameters fall back to the current day; malformed
// ones are reported as a *paramError so handlers can answer 400.

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

	"fintrack/internal/core"
	"fintrack/internal/period"
)

const maxJSONBody = 1 << 20

type paramError struct {
	name  string
	value string
	why   string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.name, e.value, e.why)
}

// ParseMonth reads year and month, defaulting each to today's.
func ParseMonth(query url.Values, today core.Date) (period.Month, error) {
	year, err := intParam(query, "year", today.Year(), 1900, 9999)
	if err != nil {
		return period.Month{}, err
	}
	month, err := intParam(query, "month", today.Month(), 1, 12)
	if err != nil {
		return period.Month{}, err
	}
	return period.Month{Year: year, Month: month}, nil
}

// ParseRange resolves the reporting window of a request:
// explicit from/to dates win, then year+month, then a whole year, then the
// current month. Bounds are inclusive; a missing from or to stays open.
func ParseRange(query url.Values, today core.Date) (from, to core.Date, err error) {
	if query.Get("from") != "" || query.Get("to") != "" {
		if from, err = dateParam(query, "from"); err != nil {
			return core.Date{}, core.Date{}, err
		}
		if to, err = dateParam(query, "to"); err != nil {
			return core.Date{}, core.Date{}, err
		}
		if !from.IsEmpty() && !to.IsEmpty() && to.Before(from.Time) {
			return core.Date{}, core.Date{}, &paramError{name: "to", value: query.Get("to"), why: "before from"}
		}
		return from, to, nil
	}
	if query.Get("year") != "" && query.Get("month") == "" {
		year, err := intParam(query, "year", today.Year(), 1900, 9999)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
		return period.MonthStart(year, 1), period.MonthEnd(year, 12), nil
	}
	m, err := ParseMonth(query, today)
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return m.Start(), m.End(), nil
}

// ParseTop reads a positive "top" limit; 0 means the caller's default.
func ParseTop(query url.Values) (int, error) {
	return intParam(query, "top", 0, 1, 100)
}

func intParam(query url.Values, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw, why: "not a number"}
	}
	if v < min || v > max {
		return 0, &paramError{name: name, value: raw, why: fmt.Sprintf("must be between %d and %d", min, max)}
	}
	return v, nil
}

func dateParam(query url.Values, name string) (core.Date, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &paramError{name: name, value: raw, why: "expected YYYY-MM-DD"}
	}
	return d, nil
}

func boolParam(query url.Values, name string, def bool) bool {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// decodeJSON reads a single JSON document of bounded size into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode request body: unexpected trailing data")
	}
	return nil
}

// sanitizeInput removes control characters except tab and newlines, and trims.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
