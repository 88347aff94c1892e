package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		types.ErrNoVacancy:          http.StatusConflict,
		types.ErrOutstandingBalance: http.StatusConflict,
		types.ErrDuplicateUsername:  http.StatusConflict,
		types.ErrAlreadyAssigned:    http.StatusConflict,
		types.ErrInvalidAmount:      http.StatusBadRequest,
		types.ErrInvalidInput:       http.StatusBadRequest,
		types.ErrNotFound:           http.StatusNotFound,
		types.ErrForbidden:          http.StatusForbidden,
		types.ErrInvalidCredentials: http.StatusUnauthorized,
		errors.New("disk full"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		wrapped := fmt.Errorf("Op: step: %w", err)
		assert.Equal(t, want, StatusFor(wrapped), err.Error())
	}
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("ReleaseRoom: pending dues of 2000.00: %w", types.ErrOutstandingBalance)
	Error(rec, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	assert.Equal(t, types.ErrOutstandingBalance.Error()+": pending dues of 2000.00", body.Error)
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("GetUserByID: scan: database is locked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestValidationError(t *testing.T) {
	type req struct {
		Username string `validate:"required"`
		Password string `validate:"min=6"`
	}
	err := validator.New().Struct(req{Password: "abc"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	resp := ValidationError(verrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "field Username is required, field Password must be at least 6 characters", resp.Error)
}
