package common_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		fallbackMsg    string
		expectHandled  bool
		expectStatus   int
		expectContains string
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			fallbackMsg:   "failed",
			expectHandled: false,
		},
		{
			name:           "AppError is handled",
			err:            common.NewNotFoundError("vehicle not found", nil),
			fallbackMsg:    "failed to get vehicle",
			expectHandled:  true,
			expectStatus:   http.StatusNotFound,
			expectContains: "vehicle not found",
		},
		{
			name:           "wrapped AppError is handled",
			err:            fmt.Errorf("load: %w", common.NewBadRequestError("invalid period", nil)),
			fallbackMsg:    "failed",
			expectHandled:  true,
			expectStatus:   http.StatusBadRequest,
			expectContains: "invalid period",
		},
		{
			name:           "sentinel not found maps to 404",
			err:            fmt.Errorf("get driver: %w", common.ErrNotFound),
			fallbackMsg:    "failed",
			expectHandled:  true,
			expectStatus:   http.StatusNotFound,
			expectContains: "resource not found",
		},
		{
			name:           "upstream failure maps to 502",
			err:            fmt.Errorf("list trips: %w", common.ErrUpstream),
			fallbackMsg:    "failed",
			expectHandled:  true,
			expectStatus:   http.StatusBadGateway,
			expectContains: "fleet backend unavailable",
		},
		{
			name:           "regular error uses fallback",
			err:            errors.New("boom"),
			fallbackMsg:    "failed to compute dashboard",
			expectHandled:  true,
			expectStatus:   http.StatusInternalServerError,
			expectContains: "failed to compute dashboard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			handled := common.HandleServiceError(c, tt.err, tt.fallbackMsg)
			assert.Equal(t, tt.expectHandled, handled)

			if tt.expectHandled {
				assert.Equal(t, tt.expectStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.expectContains)
			}
		})
	}
}

func TestHandleServiceError_RequestDeadline(t *testing.T) {
	backendErr := common.NewServiceUnavailableError("failed to load trips", fmt.Errorf("get trajets: %w", context.DeadlineExceeded))

	t.Run("expired request maps to 504", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)

		assert.True(t, common.HandleServiceError(c, backendErr, "failed"))
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "request timeout")
	})

	t.Run("backend client timeout keeps its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

		assert.True(t, common.HandleServiceError(c, backendErr, "failed"))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "failed to load trips")
	})
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Liters float64 `json:"litre" binding:"required"`
	}

	tests := []struct {
		name   string
		body   string
		expect bool
		status int
	}{
		{"valid body", `{"litre": 40}`, true, http.StatusOK},
		{"missing field", `{}`, false, http.StatusBadRequest},
		{"malformed json", `{"litre":`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var p payload
			ok := common.BindJSON(c, &p)
			assert.Equal(t, tt.expect, ok)
			if !ok {
				assert.Equal(t, tt.status, w.Code)
			}
		})
	}
}

func TestRequireParam(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/vehicles/", nil)

	_, ok := common.RequireParam(c, "id", "vehicle ID")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "vehicle ID is required")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	value, ok := common.RequireParam(c, "id", "vehicle ID")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
}
