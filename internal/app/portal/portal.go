// Package portal собирает приложение портала аккаунта: хранилище сессии в
// Redis, клиент сервиса аккаунтов, сервисный слой и HTTP-сервер.
package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/pyro1121/omg-portal/internal/config"
	"github.com/pyro1121/omg-portal/internal/services/account"
	"github.com/pyro1121/omg-portal/internal/services/admin"
	"github.com/pyro1121/omg-portal/internal/services/auth"
	"github.com/pyro1121/omg-portal/internal/services/license"
	"github.com/pyro1121/omg-portal/internal/session"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// App — собранное приложение портала.
type App struct {
	server *http.Server
	logger *slog.Logger
	store  *session.RedisStore
}

// New собирает приложение: подключает Redis, создаёт клиент сервиса аккаунтов
// и сервисный слой, регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := session.NewRedis(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	apiClient := upstream.New(cfg.AccountService)

	authService := auth.New(logger, apiClient, store)
	accountService := account.New(logger, apiClient, store, authService)
	adminService := admin.New(logger, apiClient, store, accountService, authService)
	licenseService := license.New(logger, apiClient, store, accountService, adminService, authService)

	// Контроллер входа гидрирует аккаунт после успешного входа и сбрасывает
	// агрегаторы при выходе. Связь задаётся здесь, чтобы разорвать цикл
	// зависимостей auth ↔ account.
	authService.SetHydrator(accountService)
	authService.RegisterInvalidator(accountService)
	authService.RegisterInvalidator(adminService)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, store, authService, accountService, adminService, licenseService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		store:  store,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
