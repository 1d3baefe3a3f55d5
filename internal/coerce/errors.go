package coerce

import "fmt"

// ValueError reports a record value that cannot be written into a single control
type ValueError struct {
	Key   string
	Value any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("value for %s is not a scalar (%T)", e.Key, e.Value)
}
