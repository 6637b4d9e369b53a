package client

import (
	"errors"
	"fmt"
	"net/http"
)

// IdentityError reports any failed interaction with the identity service.
// Status is zero when no response was received.
type IdentityError struct {
	Message string
	Status  int
	Err     error
}

func (e *IdentityError) Error() string {
	return e.Message
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// UnauthorizedIdentityError is an IdentityError for a 401 answer. Callers
// should re-authenticate rather than retry.
type UnauthorizedIdentityError struct {
	IdentityError
}

// As lets errors.As match an *IdentityError target as well.
func (e *UnauthorizedIdentityError) As(target interface{}) bool {
	if identityErr, ok := target.(**IdentityError); ok {
		*identityErr = &e.IdentityError
		return true
	}
	return false
}

func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedIdentityError
	return errors.As(err, &unauthorized)
}

// StatusOf returns the service status carried by err, or zero.
func StatusOf(err error) int {
	var identityErr *IdentityError
	if errors.As(err, &identityErr) {
		return identityErr.Status
	}
	return 0
}

func newTransportError(template requestTemplate, err error) error {
	return &IdentityError{
		Message: fmt.Sprintf("Could not %s - request failed because '%v'", template.action, err),
		Err:     err,
	}
}

func newDecodeError(template requestTemplate, status int, err error) error {
	return &IdentityError{
		Message: fmt.Sprintf("Could not %s '%v'", template.action, err),
		Status:  status,
		Err:     err,
	}
}

func newStatusError(template requestTemplate, status int) error {
	if status == http.StatusUnauthorized {
		return &UnauthorizedIdentityError{IdentityError{
			Message: "User is not authorized",
			Status:  status,
		}}
	}
	return &IdentityError{
		Message: fmt.Sprintf("Could not %s - service response %d", template.action, status),
		Status:  status,
	}
}
