// Package server provides the HTTP API for filling forms with candidate records.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/form-filler/internal/browser"
	"github.com/jonathan/form-filler/internal/candidates"
	"github.com/jonathan/form-filler/internal/fetch"
	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/jonathan/form-filler/internal/messaging"
)

// ErrCandidateNotFound indicates the requested candidate is not in the source
type ErrCandidateNotFound struct {
	ID string
}

func (e *ErrCandidateNotFound) Error() string {
	return fmt.Sprintf("candidate not found: %s", e.ID)
}

// ErrUnavailable indicates a feature the server was started without
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not available on this server", e.Feature)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrCandidateNotFound
		unavailable   *ErrUnavailable
		decodeErr     *messaging.DecodeError
		parseErr      *htmldoc.ParseError
		candidatesErr *candidates.Error
		browserErr    *browser.Error
		fetchErr      *fetch.Error
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &decodeErr), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &candidatesErr), errors.As(err, &browserErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
