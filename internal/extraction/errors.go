package extraction

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Extraction failures are classified into a small taxonomy instead of raw
// transport errors. Each failure maps into a single document record's error
// status; only ErrQuotaExhausted additionally halts the remaining batch,
// since every subsequent call would deterministically fail the same way.
var (
	// ErrRateLimited signals an HTTP 429 equivalent. The caller should not
	// retry immediately within the same batch.
	ErrRateLimited = errors.New("extraction backend rate limited")

	// ErrQuotaExhausted signals an HTTP 402/403 equivalent. Terminal for the
	// session; further calls will not succeed.
	ErrQuotaExhausted = errors.New("extraction quota exhausted")

	// ErrMalformedResponse signals content that is not valid per the
	// expected schema (non-JSON or schema-violating JSON).
	ErrMalformedResponse = errors.New("malformed extraction response")

	// ErrUnavailable signals a generic network or timeout failure.
	ErrUnavailable = errors.New("extraction backend unavailable")
)

// classifyAPIError maps a transport-level failure from the analysis backend
// into the taxonomy. Timeouts are treated identically to unavailability.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrUnavailable, err)
	}

	return errors.Join(ErrUnavailable, err)
}

func classifyStatus(status int, cause error) error {
	switch status {
	case http.StatusTooManyRequests:
		return errors.Join(ErrRateLimited, cause)
	case http.StatusPaymentRequired, http.StatusForbidden:
		return errors.Join(ErrQuotaExhausted, cause)
	default:
		return errors.Join(ErrUnavailable, cause)
	}
}

// UserMessage renders a classified extraction error as a human-readable
// message for the document record. Quota exhaustion gets a distinct message
// so users can tell it apart from a transient failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExhausted):
		return "AI analysis quota exhausted - no further documents can be processed this session"
	case errors.Is(err, ErrRateLimited):
		return "AI analysis rate limit reached - please retry later"
	case errors.Is(err, ErrMalformedResponse):
		return "AI analysis returned an unreadable result"
	case errors.Is(err, ErrUnavailable):
		return "AI analysis service is unavailable"
	default:
		return "document analysis failed"
	}
}
