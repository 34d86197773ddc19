// Package userdetail реализует HTTP-обработчик детального просмотра
// пользователя в административной панели.
package userdetail

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
)

// Handler управляет HTTP-запросами детального просмотра пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс привилегированного агрегатора.
type Service interface {
	LoadUserDetail(ctx context.Context, userID string) error
	UserDetail() (*models.AdminUserDetail, bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить детальный просмотр пользователя
// @Description Загружает полный профиль пользователя: использование, платежи, сессии, журнал. Результат замещает ранее открытую деталь.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Идентификатор пользователя"
// @Success 200 {object} response.Response "Детальный просмотр"
// @Failure 401 {object} response.ErrorResponse "Сессия недействительна"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 502 {object} response.ErrorResponse "Сервис аккаунтов недоступен"
// @Router /admin/users/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userdetail"
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

	if err := h.service.LoadUserDetail(r.Context(), userID); err != nil {
		log.Error("failed to load user detail", slog.String("user_id", userID), sl.Err(err))
		status, resp := response.StatusFromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	detail, ok := h.service.UserDetail()
	if !ok {
		log.Error("user detail missing after load", slog.String("user_id", userID))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(detail))
}
