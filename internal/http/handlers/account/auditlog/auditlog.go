// Package auditlog реализует HTTP-обработчик вкладки журнала действий.
package auditlog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
)

// Handler управляет HTTP-запросами журнала действий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс агрегатора данных аккаунта.
type Service interface {
	LoadAuditLog(ctx context.Context) error
	AuditLog() []models.AuditEntry
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить журнал действий
// @Description Загружает и возвращает журнал действий аккаунта.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Журнал действий"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /account/audit-log [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.auditlog"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.LoadAuditLog(r.Context()); err != nil {
		log.Error("failed to load audit log", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entries": h.service.AuditLog(),
	}))
}
