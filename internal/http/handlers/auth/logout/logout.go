// Package logout реализует HTTP-обработчик выхода из аккаунта.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
)

// Handler управляет HTTP-запросами выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс контроллера входа.
type Service interface {
	Logout(ctx context.Context) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выйти из аккаунта
// @Description Удаляет сессионный токен и сбрасывает всё загруженное состояние аккаунта.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Выход выполнен"
// @Failure 500 {object} response.ErrorResponse "Хранилище сессии недоступно"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.Logout(r.Context()); err != nil {
		log.Error("failed to logout", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("logged out")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"state": "unauthenticated",
	}))
}
