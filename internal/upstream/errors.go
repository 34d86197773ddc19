package upstream

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается на любой ответ 401 сервиса аккаунтов.
// Получатель обязан немедленно выполнить принудительный выход (fail-closed).
var ErrUnauthorized = errors.New("upstream: unauthorized")

// RequestError — транспортная ошибка (связь, таймаут). Прежнее состояние
// у вызывающей стороны сохраняется, повтор — только вручную.
type RequestError struct {
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("upstream: request %s failed: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError — структурированная ошибка сервиса аккаунтов: либо не-2xx статус,
// либо поле error в обёрнутом 2xx-ответе. Message безопасно показывать
// пользователю дословно.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: api error (status %d): %s", e.StatusCode, e.Message)
}

// IsNetwork сообщает, является ли ошибка транспортной.
func IsNetwork(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
