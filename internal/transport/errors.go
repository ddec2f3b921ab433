package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Error is a per-agent transport failure. It never aborts a turn.
type Error struct {
	Model string
	Code  string
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(model string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Model: model, Code: Classify(err), Err: err}
}

// Classify maps a failure to a short code used in logs.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := classifyStatus(statusOf(err)); code != "" {
		return code
	}
	normalized := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(normalized, "context canceled"):
		return "canceled"
	case strings.Contains(normalized, "context deadline exceeded"), strings.Contains(normalized, "timed out"):
		return "timeout"
	case strings.Contains(normalized, "connection refused"), strings.Contains(normalized, "dial tcp"), strings.Contains(normalized, "no such host"):
		return "endpoint_unreachable"
	case strings.Contains(normalized, "model not found"), strings.Contains(normalized, "does not exist"):
		return "model_missing"
	case strings.Contains(normalized, "connection reset"), strings.Contains(normalized, "eof"):
		return "transport_transient"
	default:
		return "unknown"
	}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classifyStatus(status int) string {
	switch {
	case status == 0:
		return ""
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "unauthorized"
	case status == http.StatusNotFound:
		return "model_missing"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "upstream_unavailable"
	default:
		return fmt.Sprintf("http_%d", status)
	}
}
