package response_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"roombook/shared/failure"
	"roombook/transport/http/response"

	"github.com/stretchr/testify/assert"
)

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithJSON(rec, http.StatusCreated, map[string]string{"status": "pending"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"status":"pending"}}`, rec.Body.String())
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{name: "failure", err: failure.Conflict("room is not available"), code: http.StatusConflict, body: `{"error":"room is not available"}`},
		{name: "plain error", err: errors.New("boom"), code: http.StatusInternalServerError, body: `{"error":"internal server error"}`},
		{name: "rolled back", err: failure.Transaction(errors.New("deadlock detected")), code: http.StatusInternalServerError, body: `{"error":"failed to process request, no changes were saved"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			response.WithError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
