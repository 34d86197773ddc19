// Package export реализует HTTP-обработчик потоковой выгрузки данных.
//
// Тело ответа сервиса аккаунтов проксируется клиенту без буферизации:
// выгрузка может быть большой, в память она целиком не помещается.
package export

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// Handler управляет HTTP-запросами выгрузки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс диспетчера операций.
type Service interface {
	Export(ctx context.Context, kind, from, to string) (*upstream.ExportResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выгрузить данные в CSV
// @Description Стримит выгрузку (users, usage или audit) за указанный период.
// @Tags Export
// @Produce  text/csv
// @Security BearerAuth
// @Param kind path string true "Вид выгрузки" Enums(users, usage, audit)
// @Param from query string false "Начало периода (2006-01-02)"
// @Param to query string false "Конец периода (2006-01-02)"
// @Success 200 {file} file "CSV-файл"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 422 {object} response.ErrorResponse "Неизвестный вид выгрузки"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /export/{kind} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.export"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind := chi.URLParam(r, "kind")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	res, err := h.service.Export(r.Context(), kind, from, to)
	if err != nil {
		log.Error("failed to export", slog.String("kind", kind), sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}
	defer res.Body.Close()

	contentType := res.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))

	if _, err := io.Copy(w, res.Body); err != nil {
		// Заголовки уже ушли: отказ посреди потока можно только залогировать.
		log.Error("export stream interrupted", slog.String("kind", kind), sl.Err(err))
		return
	}
	log.Info("export streamed", slog.String("kind", kind), slog.String("filename", res.Filename))
}
