package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/richxcame/fleet-analytics/pkg/common"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client's key for a fleet write
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the store
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyPrefix = "idempotency:fleet:"
)

// IdempotencyStore keeps replayable responses. *redis.Client from pkg/redis
// satisfies it.
type IdempotencyStore interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type idempotencyEntry struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
	RequestHash string          `json:"request_hash"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a fleet write sent again with
// the same Idempotency-Key, so a retried fill-up or trip is not recorded
// twice on the backend. Keys are scoped per user; reusing a key with a
// different body is rejected with 422. Only 2xx responses are stored, and a
// store outage lets the request through.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "request body too large")
			} else {
				common.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
			}
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		userID, _ := GetUserID(c)
		storeKey := idempotencyPrefix + userID + ":" + key
		requestHash := hashRequest(c.Request.Method, c.Request.URL.Path, body)

		if cached, err := store.GetString(ctx, storeKey); err == nil && cached != "" {
			var entry idempotencyEntry
			if err := json.Unmarshal([]byte(cached), &entry); err == nil {
				if entry.RequestHash != requestHash {
					common.ErrorResponse(c, http.StatusUnprocessableEntity,
						"Idempotency-Key has already been used with a different request")
					c.Abort()
					return
				}
				c.Header(IdempotentReplayHeader, "true")
				c.Data(entry.StatusCode, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		writer := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		data, err := json.Marshal(idempotencyEntry{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
			RequestHash: requestHash,
		})
		if err != nil {
			return
		}
		if err := store.SetWithExpiration(ctx, storeKey, string(data), ttl); err != nil {
			logger.WarnContext(ctx, "failed to store idempotent response",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
