package candidates

import "fmt"

// Error represents a failure to load candidates from a source
type Error struct {
	Source  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("candidates error (%s): %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("candidates error (%s): %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
