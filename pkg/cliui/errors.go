package cliui

import (
	"errors"
	"fmt"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
)

// ErrorHint returns a short, actionable line for gateway errors the user can
// do something about, or "" when there is nothing to add.
func ErrorHint(err error) string {
	var (
		credits *apierror.InsufficientCreditsError
		rate    *apierror.RateLimitError
		band    *apierror.BandAccessDeniedError
		conn    *apierror.ConnectionError
		status  apierror.StatusError
	)

	switch {
	case errors.As(err, &credits):
		return fmt.Sprintf("Out of credits: %d needed, %d left. Check \"zaguan credits balance\".",
			credits.CreditsRequired, credits.CreditsRemaining)
	case errors.As(err, &rate):
		if rate.RetryAfter != nil {
			return fmt.Sprintf("Rate limited. Try again in %ds.", *rate.RetryAfter)
		}
		return "Rate limited. Try again shortly."
	case errors.As(err, &band):
		if band.RequiredTier != nil {
			return fmt.Sprintf("This model needs the %s tier.", *band.RequiredTier)
		}
		return "Your tier does not include this model."
	case errors.As(err, &conn):
		if conn.Timeout() {
			return "The gateway did not answer in time. Raise --timeout or check gateway.base_url."
		}
		return "Could not reach the gateway. Check gateway.base_url."
	case errors.As(err, &status) && status.HTTPStatus() == 401:
		return "The API key was rejected. Run \"zaguan auth\" to store a new one."
	}
	return ""
}

// FormatError renders err with a ✗ and, when available, a hint line.
func FormatError(err error) string {
	out := fmt.Sprintf("%s %s", FailMark, err)
	if hint := ErrorHint(err); hint != "" {
		out += "\n  " + HintStyle.Render(hint)
	}
	return out
}
