package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"roombook/shared/failure"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "bad request", err: failure.BadRequest(errors.New("bad date")), code: http.StatusBadRequest, message: "bad date"},
		{name: "bad request from string", err: failure.BadRequestFromString("reason is required"), code: http.StatusBadRequest, message: "reason is required"},
		{name: "unauthorized", err: failure.Unauthorized("missing token"), code: http.StatusUnauthorized, message: "missing token"},
		{name: "internal", err: failure.InternalError(errors.New("boom")), code: http.StatusInternalServerError, message: "boom"},
		{name: "not found", err: failure.NotFound("booking not found"), code: http.StatusNotFound, message: "booking not found"},
		{name: "conflict", err: failure.Conflict("room code taken"), code: http.StatusConflict, message: "room code taken"},
		{name: "forbidden", err: failure.Forbidden("not your booking"), code: http.StatusForbidden, message: "not your booking"},
		{name: "already processed", err: failure.ErrAlreadyProcessed, code: http.StatusConflict, message: "this booking was already processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, failure.GetCode(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNilInputs(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
	assert.NoError(t, failure.Transaction(nil))
}

func TestGetCode_PlainError(t *testing.T) {
	err := errors.New("pq: connection refused")

	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	assert.Equal(t, failure.ErrInternal.Message, failure.Message(err))
}

func TestGetCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("approve booking: %w", failure.ErrAlreadyProcessed)

	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Equal(t, "this booking was already processed", failure.Message(err))
	assert.ErrorIs(t, err, failure.ErrAlreadyProcessed)
}

func TestTransaction(t *testing.T) {
	cause := errors.New("deadlock detected")

	err := failure.Transaction(cause)

	assert.ErrorIs(t, err, failure.ErrTransaction)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	assert.Equal(t, failure.ErrTransaction.Message, failure.Message(err))
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestTransaction_KeepsFailures(t *testing.T) {
	err := failure.Transaction(failure.ErrAlreadyProcessed)

	assert.Same(t, failure.ErrAlreadyProcessed, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Equal(t, "this booking was already processed", failure.Message(err))
}
