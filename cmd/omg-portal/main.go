// Package main OMG Account Portal API
//
// @title           OMG Account Portal API
// @version         1.0
// @description     API портала аккаунта OMG: вход по одноразовому коду, данные аккаунта, лицензия, административная панель
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    https://pyro1121.com/support
// @contact.email  support@pyro1121.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8090
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and session token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pyro1121/omg-portal/internal/app/portal"
	"github.com/pyro1121/omg-portal/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting omg-portal", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := portal.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("omg-portal stopped gracefully")
}
