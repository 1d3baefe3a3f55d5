package browser

import "fmt"

// Error represents a failure talking to the browser
type Error struct {
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser error during %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error during %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
