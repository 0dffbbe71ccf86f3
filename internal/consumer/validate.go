// internal/consumer/validate.go
package consumer

import (
	"github.com/solatis/pactkeeper/internal/verification"
)

// AssertionError reports a test body that failed.
type AssertionError struct {
	Message string
	Cause   error
}

func (e *AssertionError) Error() string { return e.Message }

func (e *AssertionError) Unwrap() error { return e.Cause }

// MismatchesError reports a run whose requests did not satisfy the pact.
type MismatchesError struct {
	Result verification.Result
}

func (e *MismatchesError) Error() string { return e.Result.Description() }

// Validate converts a non-Ok result into an error suitable for test assertions.
func Validate(result verification.Result) error {
	switch r := result.(type) {
	case verification.Ok:
		return nil
	case verification.Error:
		if r.MockServerState != nil && !verification.IsOk(r.MockServerState) {
			return &AssertionError{
				Message: "Pact Test function failed with an exception, possibly due to " + r.MockServerState.Description(),
				Cause:   r.Cause,
			}
		}
		msg := "<nil>"
		if r.Cause != nil {
			msg = r.Cause.Error()
		}
		return &AssertionError{
			Message: "Pact Test function failed with an exception: " + msg,
			Cause:   r.Cause,
		}
	default:
		return &MismatchesError{Result: result}
	}
}
