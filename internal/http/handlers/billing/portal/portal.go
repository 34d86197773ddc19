// Package portal реализует HTTP-обработчик перехода в портал оплаты.
//
// Портал полностью размещён у платёжного провайдера: обработчик лишь выдаёт
// одноразовый URL, дальше управление уходит браузеру.
package portal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
)

// Handler управляет HTTP-запросами портала оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс диспетчера операций.
type Service interface {
	BillingPortalURL(ctx context.Context) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить URL портала оплаты
// @Description Запрашивает одноразовый URL портала платёжного провайдера.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "URL портала"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /billing/portal [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	url, err := h.service.BillingPortalURL(r.Context())
	if err != nil {
		log.Error("failed to get billing portal url", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"url": url,
	}))
}
