// Package snapshot реализует HTTP-обработчик составного представления
// административной панели.
//
// Пагинация и поиск по каталогу пользователей — это повторный запрос с новыми
// параметрами страницы: инкрементальной дозагрузки нет.
package snapshot

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
)

// Handler управляет HTTP-запросами административной панели.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс привилегированного агрегатора.
type Service interface {
	LoadSnapshot(ctx context.Context, page, pageSize int, query string) error
	Snapshot() (*models.AdminSnapshot, bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить панель администратора
// @Description Выполняет семь конкурентных запросов и возвращает составное представление. Отказавшие обязательные срезы перечислены в degraded.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы каталога" default(1)
// @Param page_size query int false "Размер страницы каталога" default(25)
// @Param q query string false "Поисковый запрос по каталогу"
// @Success 200 {object} response.Response "Составное представление панели"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Router /admin/snapshot [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.snapshot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	query := r.URL.Query().Get("q")

	if err := h.service.LoadSnapshot(r.Context(), page, pageSize, query); err != nil {
		log.Error("failed to load admin snapshot", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	snap, ok := h.service.Snapshot()
	if !ok {
		log.Error("admin snapshot missing after load")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("admin snapshot served", slog.Int("degraded", len(snap.Degraded)))
	render.JSON(w, r, response.StatusOKWithData(snap))
}
