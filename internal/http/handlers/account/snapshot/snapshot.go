// Package snapshot реализует HTTP-обработчик составного снапшота аккаунта.
//
// Снапшот — основное представление: пользователь, лицензия, статистика,
// машины, таблица лидеров. Гидрированный снапшот отдаётся из памяти; параметр
// refresh=1 принудительно перечитывает его с сервера.
package snapshot

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

// Handler управляет HTTP-запросами снапшота аккаунта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс агрегатора данных аккаунта.
type Service interface {
	LoadSnapshot(ctx context.Context) error
	Snapshot() (*models.AccountSnapshot, bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить снапшот аккаунта
// @Description Возвращает составное представление аккаунта. С параметром refresh=1 перечитывает его с сервера.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Param refresh query string false "1 — принудительная перезагрузка"
// @Success 200 {object} response.Response "Снапшот аккаунта"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /account [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.snapshot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	snap, ok := h.service.Snapshot()
	if !ok || r.URL.Query().Get("refresh") == "1" {
		if err := h.service.LoadSnapshot(r.Context()); err != nil {
			log.Error("failed to load snapshot", sl.Err(err))
			status, resp := response.StatusFromError(err)
			w.WriteHeader(status)
			render.JSON(w, r, resp)
			return
		}
		snap, ok = h.service.Snapshot()
		if !ok {
			log.Error("snapshot missing after load")
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}
	}

	render.JSON(w, r, response.StatusOKWithData(snap))
}
