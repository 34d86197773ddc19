// Package team реализует HTTP-обработчик вкладки командной лицензии.
//
// Вкладка доступна только уровням team и enterprise: проверка выполняется по
// гидрированному снапшоту до сетевого вызова, остальные уровни получают 403.
package team

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

// Handler управляет HTTP-запросами командных данных.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс агрегатора данных аккаунта.
type Service interface {
	LoadTeam(ctx context.Context) error
	Team() (*models.TeamData, bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить участников команды
// @Description Загружает и возвращает участников командной лицензии. Требует уровень team или enterprise.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Командные данные"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 403 {object} response.ErrorResponse "Уровень лицензии без команды"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /account/team [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.team"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.LoadTeam(r.Context()); err != nil {
		log.Error("failed to load team", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	team, ok := h.service.Team()
	if !ok {
		log.Error("team missing after load")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(team))
}
