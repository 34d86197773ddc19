package updateuser

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
)

// Мок диспетчера операций
type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) AdminUpdateUser(ctx context.Context, userID string, update models.AdminUserUpdate) error {
	return m.Called(ctx, userID, update).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(userID string, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/admin/users/"+userID, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", userID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
	return req.WithContext(ctx)
}

func TestUpdateUserHandler_Success(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("AdminUpdateUser", mock.Anything, "u1",
		mock.MatchedBy(func(u models.AdminUserUpdate) bool {
			return u.Tier != nil && *u.Tier == models.TierTeam && u.Seats == nil
		})).Return(nil).Once()

	body, _ := json.Marshal(map[string]any{"tier": "team"})
	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("u1", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestUpdateUserHandler_UnknownTier(t *testing.T) {
	serviceMock := new(DispatcherMock)

	body, _ := json.Marshal(map[string]any{"tier": "platinum"})
	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("u1", body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	serviceMock.AssertNotCalled(t, "AdminUpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserHandler_EmptyUpdate(t *testing.T) {
	serviceMock := new(DispatcherMock)

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("u1", []byte(`{}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	serviceMock.AssertNotCalled(t, "AdminUpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserHandler_Forbidden(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("AdminUpdateUser", mock.Anything, "u1", mock.Anything).
		Return(models.ErrAdminOnly).Once()

	body, _ := json.Marshal(map[string]any{"seats": 10})
	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("u1", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
