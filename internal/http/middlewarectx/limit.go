package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/pyro1121/omg-portal/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов одноразовых кодов:
// perMinute запросов в минуту с коротким всплеском. Защищает от перебора
// email и от исчерпания квоты отправки писем внешним сервисом.
func RateLimitMiddleware(log *slog.Logger, perMinute int) func(http.Handler) http.Handler {
	if perMinute < 1 {
		perMinute = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
