package export

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// Мок диспетчера операций
type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) Export(ctx context.Context, kind, from, to string) (*upstream.ExportResult, error) {
	args := m.Called(ctx, kind, from, to)
	var res *upstream.ExportResult
	if v := args.Get(0); v != nil {
		res = v.(*upstream.ExportResult)
	}
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(kind, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", kind)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
	return req.WithContext(ctx)
}

func TestExportHandler_Streams(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("Export", mock.Anything, "usage", "2026-01-01", "").Return(&upstream.ExportResult{
		Body:        io.NopCloser(strings.NewReader("day,commands\n2026-01-01,42\n")),
		Filename:    "usage-2026.csv",
		ContentType: "text/csv",
	}, nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("usage", "/export/usage?from=2026-01-01"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "usage-2026.csv")
	assert.Contains(t, rec.Body.String(), "day,commands")
}

func TestExportHandler_UnknownKind(t *testing.T) {
	serviceMock := new(DispatcherMock)
	serviceMock.On("Export", mock.Anything, "widgets", "", "").
		Return(nil, &models.ValidationError{Field: "kind", Reason: `unknown export kind "widgets"`}).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), serviceMock).ServeHTTP(rec, newRequest("widgets", "/export/widgets"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
