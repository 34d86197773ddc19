// Package regenerate реализует HTTP-обработчик перегенерации лицензионного
// ключа.
//
// Операция деструктивна: старый ключ умирает в момент ответа сервера, все
// машины требуют повторной активации. Без confirmed=true сетевой вызов не
// выполняется.
package regenerate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
)

// Handler управляет HTTP-запросами перегенерации ключа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс диспетчера операций.
type Service interface {
	RegenerateKey(ctx context.Context, confirmed bool) (string, error)
}

// Request — тело запроса перегенерации.
type Request struct {
	Confirmed bool `json:"confirmed"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Перегенерировать лицензионный ключ
// @Description Выпускает новый ключ вместо старого. Требует явного подтверждения: все машины придётся активировать заново.
// @Tags License
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Подтверждение операции"
// @Success 200 {object} response.Response "Новый лицензионный ключ"
// @Failure 400 {object} response.ErrorResponse "Нет подтверждения"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /license/regenerate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.regenerate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	newKey, err := h.service.RegenerateKey(r.Context(), req.Confirmed)
	if err != nil {
		log.Error("failed to regenerate key", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("license key regenerated")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"license_key": newKey,
	}))
}
