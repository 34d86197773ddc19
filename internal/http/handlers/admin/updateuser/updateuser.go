// Package updateuser реализует HTTP-обработчик административного изменения
// пользователя: уровень, количество мест, статус.
//
// После подтверждённой мутации диспетчер перечитывает каталог и, если деталь
// этого пользователя открыта, перезагружает её.
package updateuser

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
)

// Handler управляет HTTP-запросами изменения пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс диспетчера операций.
type Service interface {
	AdminUpdateUser(ctx context.Context, userID string, update models.AdminUserUpdate) error
}

// Request — изменяемые поля пользователя; отсутствующее поле не меняется.
type Request struct {
	Tier   *string `json:"tier,omitempty" validate:"omitempty,oneof=free pro team enterprise"`
	Seats  *int    `json:"seats,omitempty" validate:"omitempty,min=1"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=active suspended"`
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
// @Summary Изменить пользователя
// @Description Изменяет уровень, количество мест или статус пользователя. Отсутствующие поля не меняются.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Идентификатор пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Пользователь изменён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.updateuser"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "id")
	if userID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id is required"))
		return
	}

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
	if req.Tier == nil && req.Seats == nil && req.Status == nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("at least one field must be provided"))
		return
	}

	update := models.AdminUserUpdate{Seats: req.Seats, Status: req.Status}
	if req.Tier != nil {
		tier := models.Tier(*req.Tier)
		update.Tier = &tier
	}

	if err := h.service.AdminUpdateUser(r.Context(), userID, update); err != nil {
		log.Error("failed to update user", slog.String("user_id", userID), sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("user updated", slog.String("user_id", userID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id": userID,
	}))
}
