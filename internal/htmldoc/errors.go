package htmldoc

import "fmt"

// ParseError represents a failure to parse an HTML document
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("html parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("html parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// DetachedError is returned when an operation targets an element that is no longer in the document
type DetachedError struct {
	Key string
}

func (e *DetachedError) Error() string {
	return fmt.Sprintf("element %s is detached from the document", e.Key)
}
