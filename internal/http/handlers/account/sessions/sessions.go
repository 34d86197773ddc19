// Package sessions реализует HTTP-обработчик вкладки активных сессий.
package sessions

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

// Handler управляет HTTP-запросами списка сессий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс агрегатора данных аккаунта.
type Service interface {
	LoadSessions(ctx context.Context) error
	Sessions() []models.SessionInfo
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить активные сессии
// @Description Загружает и возвращает список активных сессий аккаунта. Открытие вкладки всегда перечитывает список с сервера.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список сессий"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /account/sessions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.sessions"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.LoadSessions(r.Context()); err != nil {
		log.Error("failed to load sessions", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sessions": h.service.Sessions(),
	}))
}
