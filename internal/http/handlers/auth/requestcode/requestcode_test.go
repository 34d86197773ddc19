package requestcode

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// Мок контроллера входа
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) RequestCode(ctx context.Context, email, captchaToken string) error {
	args := m.Called(ctx, email, captchaToken)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRequestCodeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockErr        error
		mockCalled     bool
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "valid request",
			requestBody:    Request{Email: "user@example.com", CaptchaToken: "cap-1"},
			mockCalled:     true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing captcha",
			requestBody:    Request{Email: "user@example.com"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "userexample.com", CaptchaToken: "cap-1"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "captcha token reused",
			requestBody:    Request{Email: "user@example.com", CaptchaToken: "cap-1"},
			mockErr:        &models.ValidationError{Field: "captcha_token", Reason: "has already been used, obtain a fresh one"},
			mockCalled:     true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "account service unreachable",
			requestBody:    Request{Email: "user@example.com", CaptchaToken: "cap-1"},
			mockErr:        &upstream.RequestError{Endpoint: "auth.request-code", Err: context.DeadlineExceeded},
			mockCalled:     true,
			wantStatusCode: http.StatusBadGateway,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(AuthServiceMock)
			if tt.mockCalled {
				serviceMock.On("RequestCode", mock.Anything, mock.Anything, mock.Anything).
					Return(tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), serviceMock)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/request-code", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			serviceMock.AssertExpectations(t)
			if !tt.mockCalled {
				serviceMock.AssertNotCalled(t, "RequestCode", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
