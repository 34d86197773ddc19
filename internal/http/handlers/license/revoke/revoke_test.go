package revoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/services/license"
)

// Мок диспетчера операций
type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) Revoke(ctx context.Context, confirmed bool, kind license.RevokeKind, id string) error {
	return m.Called(ctx, confirmed, kind, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(kind, id string, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/revoke/"+kind+"/"+id, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", kind)
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
	return req.WithContext(ctx)
}

func TestRevokeHandler_Success(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("Revoke", mock.Anything, true, license.RevokeMachine, "m1").Return(nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("machine", "m1", []byte(`{"confirmed":true}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])
	serviceMock.AssertExpectations(t)
}

func TestRevokeHandler_NotConfirmed(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("Revoke", mock.Anything, false, license.RevokeSession, "s1").
		Return(models.ErrConfirmationRequired).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("session", "s1", []byte(`{"confirmed":false}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeHandler_UnknownKind(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("Revoke", mock.Anything, true, license.RevokeKind("widget"), "x1").
		Return(&models.ValidationError{Field: "kind", Reason: `unknown revoke kind "widget"`}).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("widget", "x1", []byte(`{"confirmed":true}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
