// Package revoke реализует HTTP-обработчик отзыва машины, сессии или
// участника команды.
//
// После подтверждённого сервером отзыва владеющая коллекция перечитывается:
// локального вырезания элементов не бывает.
package revoke

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/services/license"
)

// Handler управляет HTTP-запросами отзыва.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс диспетчера операций.
type Service interface {
	Revoke(ctx context.Context, confirmed bool, kind license.RevokeKind, id string) error
}

// Request — тело запроса отзыва.
type Request struct {
	Confirmed bool `json:"confirmed"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отозвать машину, сессию или участника команды
// @Description Отзывает объект по идентификатору и перечитывает владеющую коллекцию. Требует явного подтверждения.
// @Tags License
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param kind path string true "Вид объекта" Enums(machine, session, team-member)
// @Param id path string true "Идентификатор объекта"
// @Param request body Request true "Подтверждение операции"
// @Success 200 {object} response.Response "Объект отозван"
// @Failure 400 {object} response.ErrorResponse "Нет подтверждения"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 422 {object} response.ErrorResponse "Неизвестный вид объекта"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /revoke/{kind}/{id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.revoke"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind := license.RevokeKind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.Revoke(r.Context(), req.Confirmed, kind, id); err != nil {
		log.Error("failed to revoke", slog.String("kind", string(kind)),
			slog.String("id", id), sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("revoked", slog.String("kind", string(kind)), slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"kind": string(kind),
		"id":   id,
	}))
}
