// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — упростить формирование структурированных полей лога и не
// допустить попадания секретов (сессионных токенов) в журнал в открытом виде.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Masked возвращает slog.Attr с замаскированным значением секрета:
// видны только первые четыре символа. Используется для сессионных токенов
// и лицензионных ключей.
func Masked(key, secret string) slog.Attr {
	const visible = 4
	masked := secret
	if len(masked) > visible {
		masked = masked[:visible] + "****"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
