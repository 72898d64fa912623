package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// loggingTransport tags each request with an ID and logs its outcome at debug level.
type loggingTransport struct {
	next   http.RoundTripper
	logger *zap.Logger
}

func newLoggingTransport(next http.RoundTripper, logger *zap.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = generateRequestID()
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	}
	if err != nil {
		t.logger.Debug("tracking request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.logger.Debug("tracking request completed", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}

func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
