package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{NewPermissionDenied("no"), CodePermissionDenied, http.StatusForbidden},
		{NewConflict("taken", nil), CodeConflict, http.StatusConflict},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewAppError("app", nil), CodeApp, http.StatusBadRequest},
		{errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		assert.Equal(t, tc.code, de.Code)
		assert.Equal(t, tc.status, de.HTTPStatus)
		assert.NotNil(t, de.Details)
	}
}

func TestToDomainErrorUnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("claim: %w", NewConflict("Ticket already claimed", map[string]any{"assigned_to": "a1"}))

	de := ToDomainError(wrapped)
	assert.Equal(t, CodeConflict, de.Code)
	assert.Equal(t, "a1", de.Details["assigned_to"])
	assert.True(t, HasCode(wrapped, CodeConflict))
}

func TestInternalErrorHidesCause(t *testing.T) {
	de := ToDomainError(errors.New("pq: relation tickets does not exist"))
	assert.Equal(t, "internal server error", de.Message)
	assert.Nil(t, ToDomainError(nil))
}
