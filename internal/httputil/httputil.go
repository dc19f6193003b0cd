package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
)

// DataStatusHeader tells clients whether a report was computed from
// partially malformed data.
const DataStatusHeader = "X-Data-Status"

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status code. Server-side failures are logged
// with the request logger and their detail is withheld from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// MarkDataStatus sets X-Data-Status to "degraded" or "ok".
func MarkDataStatus(w http.ResponseWriter, audit apperr.Audit) {
	if audit.DegradedData {
		w.Header().Set(DataStatusHeader, "degraded")
		return
	}
	w.Header().Set(DataStatusHeader, "ok")
}

// AddServerTiming appends one Server-Timing metric.
func AddServerTiming(w http.ResponseWriter, name string, d time.Duration) {
	w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.1f", name, float64(d.Microseconds())/1000))
}

// DecodeJSON reads a JSON body, rejecting unknown fields, then runs the
// struct's validate tags.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("body", "invalid request body: %s", strings.TrimSpace(err.Error()))
	}
	return Validate(v)
}
