// Package failure carries the HTTP status of an error next to the message a
// caller is allowed to see.
package failure

import (
	"errors"
	"net/http"
)

// Failure is an error with the HTTP status it maps to.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Failure) Error() string {
	return e.Message
}

var (
	ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

	// ErrAlreadyProcessed is returned when a booking has left the state an action requires.
	ErrAlreadyProcessed = &Failure{Code: http.StatusConflict, Message: "this booking was already processed"}

	// ErrTransaction is the caller-facing side of any rolled back unit of work.
	ErrTransaction = &Failure{Code: http.StatusInternalServerError, Message: "failed to process request, no changes were saved"}

	// ErrInternal replaces the message of errors that are not a Failure.
	ErrInternal = &Failure{Code: http.StatusInternalServerError, Message: "internal server error"}
)

func newFailure(code int, message string) error {
	return &Failure{Code: code, Message: message}
}

func fromError(code int, err error) error {
	if err == nil {
		return nil
	}

	return newFailure(code, err.Error())
}

// BadRequest turns err into a 400. A nil err stays nil.
func BadRequest(err error) error {
	return fromError(http.StatusBadRequest, err)
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, msg)
}

// InternalError exposes err's message with a 500. A nil err stays nil.
func InternalError(err error) error {
	return fromError(http.StatusInternalServerError, err)
}

func NotFound(msg string) error {
	return newFailure(http.StatusNotFound, msg)
}

func Conflict(msg string) error {
	return newFailure(http.StatusConflict, msg)
}

func Forbidden(msg string) error {
	return newFailure(http.StatusForbidden, msg)
}

// Transaction marks cause as a rolled back transaction. errors.Is matches both
// ErrTransaction and the cause; GetCode reports 500 unless the cause is itself a Failure.
func Transaction(cause error) error {
	if cause == nil {
		return nil
	}

	var fail *Failure
	if errors.As(cause, &fail) {
		return cause
	}

	return &txError{cause: cause}
}

type txError struct {
	cause error
}

func (e *txError) Error() string {
	return ErrTransaction.Message + ": " + e.cause.Error()
}

func (e *txError) Unwrap() []error {
	return []error{ErrTransaction, e.cause}
}

// Message returns the text safe to show to a caller: the message of the
// outermost Failure in the chain, or a generic one.
func Message(err error) string {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Message
	}

	return ErrInternal.Message
}

// GetCode returns the status of the outermost Failure in the chain, 500 otherwise.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
