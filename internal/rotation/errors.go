package rotation

import "errors"

var (
	// ErrInvalidInput rejects a prescription that does not cover 0..RotationLength
	// one year at a time, or parameters outside their domain.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPositiveResultYears is returned when no year has a positive net result,
	// so there is no terminal year to compound to.
	ErrNoPositiveResultYears = errors.New("no year with a positive result")

	// ErrDegenerateRate is returned when the LEV denominator (1+r)^T - 1 is zero,
	// or when the rate drives a discounted or compounded amount out of float range.
	ErrDegenerateRate = errors.New("degenerate interest rate")
)

// Kind maps an engine error to a short stable name, used in run history and
// API error payloads. Unknown errors map to "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoPositiveResultYears):
		return "no_positive_result_years"
	case errors.Is(err, ErrDegenerateRate):
		return "degenerate_rate"
	default:
		return "internal"
	}
}
