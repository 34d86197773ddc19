package snapshot

import (
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
	"github.com/stretchr/testify/require"

	"github.com/pyro1121/omg-portal/internal/models"
)

// Мок агрегатора данных аккаунта
type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) LoadSnapshot(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *AccountServiceMock) Snapshot() (*models.AccountSnapshot, bool) {
	args := m.Called()
	var snap *models.AccountSnapshot
	if v := args.Get(0); v != nil {
		snap = v.(*models.AccountSnapshot)
	}
	return snap, args.Bool(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
}

func TestSnapshotHandler_Hydrated(t *testing.T) {
	snap := &models.AccountSnapshot{
		User:    models.User{ID: "u1", Email: "user@example.com"},
		License: models.License{Key: "omg_k1", Tier: models.TierPro},
	}
	serviceMock := new(AccountServiceMock)
	serviceMock.On("Snapshot").Return(snap, true)

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("/account"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])
	data := got["data"].(map[string]any)
	license := data["license"].(map[string]any)
	assert.Equal(t, "omg_k1", license["license_key"])
	// Гидрированное состояние отдаётся без похода на сервер.
	serviceMock.AssertNotCalled(t, "LoadSnapshot", mock.Anything)
}

func TestSnapshotHandler_LoadsWhenMissing(t *testing.T) {
	snap := &models.AccountSnapshot{User: models.User{ID: "u1"}}
	serviceMock := new(AccountServiceMock)
	serviceMock.On("Snapshot").Return(nil, false).Once()
	serviceMock.On("LoadSnapshot", mock.Anything).Return(nil).Once()
	serviceMock.On("Snapshot").Return(snap, true).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("/account"))

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestSnapshotHandler_RefreshForcesReload(t *testing.T) {
	snap := &models.AccountSnapshot{User: models.User{ID: "u1"}}
	serviceMock := new(AccountServiceMock)
	serviceMock.On("Snapshot").Return(snap, true)
	serviceMock.On("LoadSnapshot", mock.Anything).Return(nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("/account?refresh=1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertCalled(t, "LoadSnapshot", mock.Anything)
}

func TestSnapshotHandler_NotAuthenticated(t *testing.T) {
	serviceMock := new(AccountServiceMock)
	serviceMock.On("Snapshot").Return(nil, false)
	serviceMock.On("LoadSnapshot", mock.Anything).Return(models.ErrNotAuthenticated)

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("/account"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
