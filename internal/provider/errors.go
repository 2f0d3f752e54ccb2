package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorType classifies upstream API failures so the circuit breaker and the
// logs can tell provider health problems from caller mistakes.
type ErrorType int

const (
	ErrRateLimit          ErrorType = iota // HTTP 429
	ErrProviderOverloaded                  // HTTP 502, 503
	ErrContextTooLong                      // HTTP 400 + context length exceeded
	ErrContentFiltered                     // HTTP 400 + content filter
	ErrAuth                                // HTTP 401, 403
	ErrMalformedResponse                   // JSON parse failure
	ErrTimeout                             // request deadline exceeded
	ErrUnknown                             // anything else
)

// String returns the human-readable name of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrRateLimit:
		return "rate_limit"
	case ErrProviderOverloaded:
		return "provider_overloaded"
	case ErrContextTooLong:
		return "context_length_exceeded"
	case ErrContentFiltered:
		return "content_filter"
	case ErrAuth:
		return "auth_error"
	case ErrMalformedResponse:
		return "malformed_response"
	case ErrTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an upstream API error with its classification.
type ClassifiedError struct {
	Provider   string
	Type       ErrorType
	StatusCode int
	Message    string
	RetryAfter time.Duration // only set for rate limit errors
}

func (e *ClassifiedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s %s (HTTP %d): %s (retry after %s)", e.Provider, e.Type, e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("%s %s (HTTP %d): %s", e.Provider, e.Type, e.StatusCode, e.Message)
}

// CallerFault reports whether the failure is the request's fault rather
// than the provider's. Caller faults must not trip the circuit breaker.
func (e *ClassifiedError) CallerFault() bool {
	switch e.Type {
	case ErrAuth, ErrContentFiltered, ErrContextTooLong:
		return true
	default:
		return false
	}
}

// apiErrorBody covers the common {"error": {...}} envelope that OpenAI-style
// and Anthropic-style APIs both return.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ClassifyResponse classifies a non-2xx HTTP response. It consumes the
// response body.
func ClassifyResponse(providerID string, resp *http.Response) *ClassifiedError {
	body, _ := io.ReadAll(resp.Body)

	var errBody apiErrorBody
	json.Unmarshal(body, &errBody) //nolint:errcheck // best-effort parse

	msg := errBody.Error.Message
	if msg == "" {
		msg = string(body)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrRateLimit,
			StatusCode: resp.StatusCode,
			Message:    msg,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}

	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrProviderOverloaded,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}

	case http.StatusUnauthorized, http.StatusForbidden:
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrAuth,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}

	case http.StatusBadRequest:
		return classifyBadRequest(providerID, resp.StatusCode, msg, errBody)

	default:
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrUnknown,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}
}

// classifyBadRequest further classifies HTTP 400 errors from the error body.
func classifyBadRequest(providerID string, statusCode int, msg string, errBody apiErrorBody) *ClassifiedError {
	combined := strings.ToLower(errBody.Error.Code + " " + errBody.Error.Type + " " + msg)

	if strings.Contains(combined, "context_length_exceeded") ||
		strings.Contains(combined, "maximum context length") ||
		strings.Contains(combined, "too many tokens") {
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrContextTooLong,
			StatusCode: statusCode,
			Message:    msg,
		}
	}

	if strings.Contains(combined, "content_filter") ||
		strings.Contains(combined, "content_policy") ||
		strings.Contains(combined, "flagged") {
		return &ClassifiedError{
			Provider:   providerID,
			Type:       ErrContentFiltered,
			StatusCode: statusCode,
			Message:    msg,
		}
	}

	return &ClassifiedError{
		Provider:   providerID,
		Type:       ErrUnknown,
		StatusCode: statusCode,
		Message:    msg,
	}
}

// parseRetryAfter parses the Retry-After header value as seconds.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
