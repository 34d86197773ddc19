// Package verifycode реализует HTTP-обработчик проверки шестизначного кода.
//
// При успехе контроллер входа сохраняет сессионный токен и запускает загрузку
// снапшота аккаунта; при отказе сервера состояние остаётся code_requested и
// код можно ввести заново без нового запроса.
package verifycode

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

// Handler управляет HTTP-запросами проверки кода входа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс контроллера входа.
type Service interface {
	VerifyCode(ctx context.Context, code string) error
}

// Request — тело запроса проверки кода.
type Request struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
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
// @Summary Проверить одноразовый код
// @Description Проверяет шестизначный код и при успехе открывает сессию.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Шестизначный код из письма"
// @Success 200 {object} response.Response "Вход выполнен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Сервер отклонил код"
// @Router /auth/verify-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifycode"
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

	if err := h.service.VerifyCode(r.Context(), req.Code); err != nil {
		log.Error("failed to verify code", sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("code verified, session opened")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"state": "authenticated",
	}))
}
