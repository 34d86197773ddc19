package models

import (
	"errors"
	"fmt"
)

// Ошибки доменного уровня. Классификация: ValidationError — локальная ошибка
// без сетевого вызова; остальные — отказ предусловия соответствующей операции.
var (
	// ErrNotAuthenticated — операция требует состояния authenticated.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAdminOnly — операция доступна только аккаунтам с is_admin.
	ErrAdminOnly = errors.New("admin privileges required")
	// ErrTierRequired — командные данные доступны только на уровнях team и enterprise.
	ErrTierRequired = errors.New("team or enterprise tier required")
	// ErrConfirmationRequired — деструктивная операция требует явного подтверждения.
	ErrConfirmationRequired = errors.New("explicit confirmation required")
	// ErrSessionChanged — ответ пришёл для уже неактуальной сессии и был отброшен.
	ErrSessionChanged = errors.New("session changed, response discarded")
)

// ValidationError — локальная ошибка валидации входных данных.
// Блокирует отправку запроса: сетевой вызов не выполняется.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %s %s", e.Field, e.Reason)
}

// IsValidation сообщает, является ли ошибка локальной ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
