package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

type noteRequest struct {
	Note  string `json:"note" validate:"required,max=10"`
	Month int    `json:"month" validate:"min=1,max=12"`
}

func TestDecodeJSONValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"ok","month":13}`))
	var body noteRequest
	err := DecodeJSON(req, &body)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "month")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"ok","month":2,"extra":1}`))
	assert.ErrorIs(t, DecodeJSON(req, &body), apperr.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"ok","month":2}`))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, 2, body.Month)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	rec := httptest.NewRecorder()
	WriteError(rec, req, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	WriteError(rec, req, apperr.NotFound("profit sharing record", "42"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "42")
}

func TestHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	MarkDataStatus(rec, apperr.Audit{DegradedData: true, DegradedCount: 2})
	AddServerTiming(rec, "fetch", 1500*time.Microsecond)

	assert.Equal(t, "degraded", rec.Header().Get(DataStatusHeader))
	assert.Equal(t, "fetch;dur=1.5", rec.Header().Get("Server-Timing"))
}
