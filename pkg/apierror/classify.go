package apierror

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// Classify maps a non-2xx response to a typed error. The body is expected to
// look like {"error": {"message": ..., "type": ..., ...}}; anything else
// produces an *APIError with UnknownErrorMessage.
func Classify(statusCode int, body []byte, requestID string) error {
	base := APIError{
		StatusCode: statusCode,
		Message:    UnknownErrorMessage,
		RequestID:  requestID,
	}

	fields := errorObject(body)
	if fields == nil {
		return &base
	}

	if msg, ok := fields["message"].(string); ok {
		base.Message = msg
	}
	base.Type, _ = fields["type"].(string)

	switch base.Type {
	case TypeInsufficientCredits:
		required, _ := intField(fields, "credits_required")
		remaining, _ := intField(fields, "credits_remaining")
		return &InsufficientCreditsError{
			APIError:         base,
			CreditsRequired:  required,
			CreditsRemaining: remaining,
		}

	case TypeRateLimitExceeded:
		err := &RateLimitError{APIError: base}
		if v, ok := intField(fields, "retry_after"); ok {
			err.RetryAfter = &v
		}
		return err

	case TypeBandAccessDenied:
		return &BandAccessDeniedError{
			APIError:     base,
			Band:         stringField(fields, "band"),
			RequiredTier: stringField(fields, "required_tier"),
			CurrentTier:  stringField(fields, "current_tier"),
		}

	default:
		return &base
	}
}

// ClassifyResponse reads the response body and the X-Request-Id header and
// classifies the response. The body is not closed.
func ClassifyResponse(resp *http.Response) error {
	var body []byte
	if resp.Body != nil {
		// A body read failure still classifies by status.
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	return Classify(resp.StatusCode, body, resp.Header.Get(RequestIDHeader))
}

// errorObject returns the members of the body's "error" object, or nil.
func errorObject(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil
	}

	fields, _ := envelope["error"].(map[string]any)
	return fields
}

func intField(fields map[string]any, key string) (int, bool) {
	switch v := fields[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		if f, err := v.Float64(); err == nil && !math.IsInf(f, 0) {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func stringField(fields map[string]any, key string) *string {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	return &s
}
