package filler

import "fmt"

// FillError represents an unexpected failure that aborted a fill
type FillError struct {
	Message string
	Key     string
	Cause   error
}

func (e *FillError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s (field %s)", e.Message, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fill aborted: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("fill aborted: %s", msg)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}
