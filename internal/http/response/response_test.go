package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

func TestValidationError(t *testing.T) {
	type request struct {
		Email string `validate:"required,email"`
		Code  string `validate:"required,len=6,numeric"`
	}

	err := validator.New().Struct(request{Email: "not-an-email", Code: "12x"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email address")
	assert.Contains(t, resp.Error, "field Code has invalid length")
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "локальная валидация", err: &models.ValidationError{Field: "code", Reason: "must be exactly 6 digits"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "нет аутентификации", err: models.ErrNotAuthenticated, wantStatus: http.StatusUnauthorized},
		{name: "401 от сервиса аккаунтов", err: upstream.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "нужны права администратора", err: models.ErrAdminOnly, wantStatus: http.StatusForbidden},
		{name: "нужен командный уровень", err: models.ErrTierRequired, wantStatus: http.StatusForbidden},
		{name: "нет подтверждения", err: models.ErrConfirmationRequired, wantStatus: http.StatusBadRequest},
		{name: "сессия сменилась", err: models.ErrSessionChanged, wantStatus: http.StatusConflict},
		{name: "структурированный отказ сервера", err: &upstream.APIError{StatusCode: 500, Message: "boom"}, wantStatus: http.StatusBadGateway},
		{name: "транспортный отказ", err: &upstream.RequestError{Endpoint: "account.snapshot", Err: errors.New("timeout")}, wantStatus: http.StatusBadGateway},
		{name: "неизвестная ошибка", err: errors.New("wat"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := StatusFromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, StatusError, resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}
