// Package requestcode реализует HTTP-обработчик запроса одноразового кода.
//
// Handler принимает JSON с email и одноразовым CAPTCHA-токеном, валидирует их
// и передаёт контроллеру входа. Повторная отправка кода (resend) проходит через
// тот же обработчик с новым CAPTCHA-токеном.
package requestcode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
)

// Handler управляет HTTP-запросами одноразового кода входа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс контроллера входа.
type Service interface {
	RequestCode(ctx context.Context, email, captchaToken string) error
}

// Request — тело запроса одноразового кода.
type Request struct {
	Email        string `json:"email" validate:"required,email"`
	CaptchaToken string `json:"captcha_token" validate:"required"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запросить одноразовый код входа
// @Description Отправляет шестизначный код на указанный email. Требует свежий CAPTCHA-токен: каждый токен одноразовый.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email и CAPTCHA-токен"
// @Success 200 {object} response.Response "Код отправлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /auth/request-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.requestcode"
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

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.RequestCode(r.Context(), req.Email, req.CaptchaToken); err != nil {
		log.Error("failed to request code", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("one-time code requested", slog.String("email", req.Email))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"state": "code_requested",
		"email": req.Email,
	}))
}
