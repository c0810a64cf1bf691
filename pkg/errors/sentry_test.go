package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/stretchr/testify/assert"
)

func TestShouldReportError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		want       bool
	}{
		{"nil error", nil, http.StatusInternalServerError, false},
		{"not found sentinel", fmt.Errorf("vehicle: %w", common.ErrNotFound), http.StatusNotFound, false},
		{"validation app error", common.NewValidationError("km_arriver"), http.StatusBadRequest, false},
		{"upstream failure", common.NewServiceUnavailableError("backend down", nil), http.StatusBadGateway, true},
		{"unexpected error", errors.New("nil map write"), http.StatusInternalServerError, true},
		{"client error", errors.New("weird"), http.StatusConflict, false},
		{"rate limited", errors.New("slow down"), http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldReportError(tt.err, tt.statusCode))
		})
	}
}

func TestInitSentryRequiresDSN(t *testing.T) {
	err := InitSentry(&SentryConfig{})
	assert.Error(t, err)
}

func TestDefaultSentryConfigSampleRates(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SENTRY_TRACES_SAMPLE_RATE", "")
	t.Setenv("SENTRY_SAMPLE_RATE", "0.5")

	cfg := DefaultSentryConfig()
	assert.Equal(t, "production", cfg.Environment)
	assert.InDelta(t, 0.1, cfg.TracesSampleRate, 1e-9)
	assert.InDelta(t, 0.5, cfg.SampleRate, 1e-9)
}
