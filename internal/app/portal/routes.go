// Package portal предоставляет маршруты портала аккаунта.
package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pyro1121/omg-portal/internal/config"
	"github.com/pyro1121/omg-portal/internal/http/handlers/account/auditlog"
	accountsnapshot "github.com/pyro1121/omg-portal/internal/http/handlers/account/snapshot"
	"github.com/pyro1121/omg-portal/internal/http/handlers/account/sessions"
	"github.com/pyro1121/omg-portal/internal/http/handlers/account/team"
	adminsnapshot "github.com/pyro1121/omg-portal/internal/http/handlers/admin/snapshot"
	"github.com/pyro1121/omg-portal/internal/http/handlers/admin/updateuser"
	"github.com/pyro1121/omg-portal/internal/http/handlers/admin/userdetail"
	"github.com/pyro1121/omg-portal/internal/http/handlers/auth/logout"
	"github.com/pyro1121/omg-portal/internal/http/handlers/auth/requestcode"
	"github.com/pyro1121/omg-portal/internal/http/handlers/auth/resume"
	"github.com/pyro1121/omg-portal/internal/http/handlers/auth/verifycode"
	billingportal "github.com/pyro1121/omg-portal/internal/http/handlers/billing/portal"
	"github.com/pyro1121/omg-portal/internal/http/handlers/export"
	"github.com/pyro1121/omg-portal/internal/http/handlers/license/regenerate"
	"github.com/pyro1121/omg-portal/internal/http/handlers/license/revoke"
	"github.com/pyro1121/omg-portal/internal/http/middlewarectx"
	accountservice "github.com/pyro1121/omg-portal/internal/services/account"
	adminservice "github.com/pyro1121/omg-portal/internal/services/admin"
	authservice "github.com/pyro1121/omg-portal/internal/services/auth"
	licenseservice "github.com/pyro1121/omg-portal/internal/services/license"
	"github.com/pyro1121/omg-portal/internal/session"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, store session.Store,
	authService *authservice.Service, accountService *accountservice.Service,
	adminService *adminservice.Service, licenseService *licenseservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки входа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RequestCodePerMinute))
			r.Post("/auth/request-code", requestcode.New(logger, authService).ServeHTTP)
		})
		r.Post("/auth/verify-code", verifycode.New(logger, authService).ServeHTTP)
		r.Post("/auth/resume", resume.New(logger, authService).ServeHTTP)

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(store, logger))

			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)

			r.Get("/account", accountsnapshot.New(logger, accountService).ServeHTTP)
			r.Get("/account/sessions", sessions.New(logger, accountService).ServeHTTP)
			r.Get("/account/audit-log", auditlog.New(logger, accountService).ServeHTTP)
			r.Get("/account/team", team.New(logger, accountService).ServeHTTP)

			r.Post("/license/regenerate", regenerate.New(logger, licenseService).ServeHTTP)
			r.Post("/revoke/{kind}/{id}", revoke.New(logger, licenseService).ServeHTTP)
			r.Get("/billing/portal", billingportal.New(logger, licenseService).ServeHTTP)
			r.Get("/export/{kind}", export.New(logger, licenseService).ServeHTTP)

			r.Get("/admin/snapshot", adminsnapshot.New(logger, adminService).ServeHTTP)
			r.Get("/admin/users/{id}", userdetail.New(logger, adminService).ServeHTTP)
			r.Patch("/admin/users/{id}", updateuser.New(logger, licenseService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
