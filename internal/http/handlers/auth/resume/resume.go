// Package resume реализует HTTP-обработчик восстановления сессии при старте.
package resume

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
)

// Handler управляет HTTP-запросами восстановления сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс контроллера входа.
type Service interface {
	Resume(ctx context.Context) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Восстановить сохранённую сессию
// @Description Проверяет сохранённый токен на сервере. Действительный токен открывает сессию без повторного входа, недействительный удаляется.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Результат восстановления"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /auth/resume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resume"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	resumed, err := h.service.Resume(r.Context())
	if err != nil {
		// Токен пережил транспортный отказ: решение о его судьбе принимает
		// только сервер.
		log.Error("failed to resume session", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	state := "unauthenticated"
	if resumed {
		state = "authenticated"
	}
	log.Info("resume attempted", slog.Bool("resumed", resumed))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"resumed": resumed,
		"state":   state,
	}))
}
