// Package middlewarectx содержит HTTP middleware портала аккаунта.
//
// SessionMiddleware проверяет наличие сохранённого сессионного токена до входа
// в защищённые обработчики; RateLimitMiddleware ограничивает частоту запросов
// одноразовых кодов.
package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pyro1121/omg-portal/internal/http/response"
	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/session"
)

// SessionMiddleware возвращает HTTP middleware, которое пропускает запрос
// дальше только при наличии сохранённого сессионного токена.
//
// Сам токен в контекст не кладётся: сервисный слой читает актуальное значение
// из хранилища в момент вызова, чтобы поздний запрос не работал со снимком
// уже заменённой сессии.
func SessionMiddleware(store session.Store, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			_, ok, err := store.Get(r.Context())
			if err != nil {
				log.Error("session store unavailable", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("session store unavailable"))
				return
			}
			if !ok {
				log.Info("request without session")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
