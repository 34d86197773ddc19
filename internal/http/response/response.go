// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has invalid length", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has an unsupported value", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is below the allowed minimum", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// StatusFromError переводит доменную ошибку в HTTP-статус и унифицированный
// ответ. Обработчики используют его для единообразной классификации отказов
// сервисного слоя.
func StatusFromError(err error) (int, ErrorResponse) {
	var vErr *models.ValidationError
	var apiErr *upstream.APIError

	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, Error(vErr.Error())
	case errors.Is(err, models.ErrNotAuthenticated), errors.Is(err, upstream.ErrUnauthorized):
		return http.StatusUnauthorized, Error("not authenticated")
	case errors.Is(err, models.ErrAdminOnly):
		return http.StatusForbidden, Error("admin privileges required")
	case errors.Is(err, models.ErrTierRequired):
		return http.StatusForbidden, Error("team or enterprise tier required")
	case errors.Is(err, models.ErrConfirmationRequired):
		return http.StatusBadRequest, Error("explicit confirmation required")
	case errors.Is(err, models.ErrSessionChanged):
		return http.StatusConflict, Error("session changed, repeat the request")
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, Error(apiErr.Message)
	case upstream.IsNetwork(err):
		return http.StatusBadGateway, Error("account service unreachable")
	default:
		return http.StatusInternalServerError, Error("internal error")
	}
}
