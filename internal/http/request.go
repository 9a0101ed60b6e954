package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

// maxJSONBody bounds JSON request bodies; file uploads have their own limit.
const maxJSONBody = 1 << 20

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryDate parses an ISO date query parameter; zero Date when absent.
func queryDate(q url.Values, key string) (core.Date, error) {
	raw := q.Get(key)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

// queryDateRange parses from/to, defaulting to the current calendar month.
func queryDateRange(q url.Values, now time.Time) (core.Date, core.Date, error) {
	from, err := queryDate(q, "from")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := queryDate(q, "to")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}

	if from.IsZero() && to.IsZero() {
		from = core.NewDate(now.Year(), now.Month(), 1)
		to = core.Date{Time: from.AddDate(0, 1, -1)}
		return from, to, nil
	}
	if from.IsZero() || to.IsZero() {
		return core.Date{}, core.Date{}, errors.New("from and to must be supplied together")
	}
	if to.Before(from.Time) {
		return core.Date{}, core.Date{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(q url.Values, key string, fallback int) int {
	if raw := q.Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}
