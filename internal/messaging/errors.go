package messaging

import "fmt"

// DecodeError represents an inbound message that could not be accepted
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("message decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("message decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
