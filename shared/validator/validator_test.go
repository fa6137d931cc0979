package validator_test

import (
	"net/http"
	"roombook/shared/failure"
	"roombook/shared/validator"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleRequest struct {
	RoomID     string `json:"room_id"     validate:"required,uuid"`
	Email      string `json:"email"       validate:"omitempty,email"`
	BorrowDate string `json:"borrow_date" validate:"required,date"`
	StartTime  string `json:"start_time"  validate:"required,clock"`
	Seats      int    `json:"seats"       validate:"gte=0,lte=120"`
	Status     string `json:"status"      validate:"omitempty,oneof=tersedia dipakai pemeliharaan"`
}

func validRequest() scheduleRequest {
	return scheduleRequest{
		RoomID:     "8c4ed7b4-0b0e-4a5c-9e53-7c1f2d1b9a10",
		Email:      "siti@example.com",
		BorrowDate: "2026-03-02",
		StartTime:  "09:00",
		Seats:      12,
		Status:     "tersedia",
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *scheduleRequest)
		message string
	}{
		{name: "valid", mutate: func(*scheduleRequest) {}},
		{name: "clock with seconds", mutate: func(r *scheduleRequest) { r.StartTime = "09:00:30" }},
		{name: "missing room", mutate: func(r *scheduleRequest) { r.RoomID = "" }, message: "room_id is required"},
		{name: "room is not a uuid", mutate: func(r *scheduleRequest) { r.RoomID = "room-1" }, message: "room_id must be a valid UUID"},
		{name: "bad email", mutate: func(r *scheduleRequest) { r.Email = "siti" }, message: "email must be a valid email address"},
		{name: "bad date", mutate: func(r *scheduleRequest) { r.BorrowDate = "02/03/2026" }, message: "borrow_date must use the YYYY-MM-DD format"},
		{name: "impossible date", mutate: func(r *scheduleRequest) { r.BorrowDate = "2026-02-30" }, message: "borrow_date must use the YYYY-MM-DD format"},
		{name: "bad clock", mutate: func(r *scheduleRequest) { r.StartTime = "9am" }, message: "start_time must use the HH:MM format"},
		{name: "out of range clock", mutate: func(r *scheduleRequest) { r.StartTime = "25:00" }, message: "start_time must use the HH:MM format"},
		{name: "too many seats", mutate: func(r *scheduleRequest) { r.Seats = 121 }, message: "seats must be less than or equal to 120"},
		{name: "unknown status", mutate: func(r *scheduleRequest) { r.Status = "closed" }, message: "status must be one of [tersedia dipakai pemeliharaan]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := validator.ValidateStruct(&req)

			if tt.message == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("decodes and validates", func(t *testing.T) {
		body := `{"room_id":"8c4ed7b4-0b0e-4a5c-9e53-7c1f2d1b9a10","borrow_date":"2026-03-02","start_time":"13:30","seats":4}`

		var req scheduleRequest
		err := validator.Validate(strings.NewReader(body), &req)

		require.NoError(t, err)
		assert.Equal(t, "13:30", req.StartTime)
		assert.Equal(t, 4, req.Seats)
	})

	t.Run("malformed json", func(t *testing.T) {
		var req scheduleRequest
		err := validator.Validate(strings.NewReader(`{"room_id":`), &req)

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		assert.Contains(t, err.Error(), "failed to decode request body")
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		var req scheduleRequest
		err := validator.Validate(strings.NewReader(""), &req)

		assert.Error(t, err)
	})
}

func TestValidateOptional(t *testing.T) {
	type note struct {
		Note string `json:"note" validate:"omitempty,max=5"`
	}

	t.Run("empty body", func(t *testing.T) {
		var req note
		assert.NoError(t, validator.ValidateOptional(strings.NewReader(""), &req))
		assert.Empty(t, req.Note)
	})

	t.Run("body is still validated", func(t *testing.T) {
		var req note
		err := validator.ValidateOptional(strings.NewReader(`{"note":"too long"}`), &req)

		require.Error(t, err)
		assert.Equal(t, "note must be at most 5", err.Error())
	})

	t.Run("malformed json", func(t *testing.T) {
		var req note
		err := validator.ValidateOptional(strings.NewReader(`{`), &req)

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name    string
		field   any
		tag     string
		wantErr bool
	}{
		{name: "date", field: "2026-03-02", tag: "date"},
		{name: "invalid date", field: "2026-3-2", tag: "date", wantErr: true},
		{name: "clock", field: "07:45", tag: "clock"},
		{name: "empty allowed with omitempty", field: "", tag: "omitempty,clock"},
		{name: "required", field: "", tag: "required", wantErr: true},
		{name: "empty tag", field: "", tag: "empty"},
		{name: "not empty", field: "x", tag: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidation(t *testing.T) {
	png := "data:image/png;base64,iVBORw0KGgo="

	assert.NoError(t, validator.ValidateVar(png, "mimetypes=image/png image/jpeg"))
	assert.Error(t, validator.ValidateVar(png, "mimetypes=image/jpeg"))
	assert.Error(t, validator.ValidateVar("not base64", "mimetypes=image/png"))
	assert.NoError(t, validator.ValidateVar(png, "maxfilesize=1"))
	assert.Error(t, validator.ValidateVar(strings.Repeat("a", 2<<20), "maxfilesize=1"))
	assert.Error(t, validator.ValidateVar("data:image/png;base64,"+strings.Repeat("A", 2<<20), "maxfilesize=1"))
}
