package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	fxmodules "github.com/ibrahim-qi/sesh-app/internal/fx"
	"github.com/ibrahim-qi/sesh-app/internal/middleware"
	"github.com/ibrahim-qi/sesh-app/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	seshServer *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	cfg.Log(logger)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	// cancelled on stop so open change streams return before Shutdown waits
	baseCtx, stopStreams := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.RequestID(logger)(c.Handler(seshServer.Handler())),
		ReadHeaderTimeout: constants.RequestTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			stopStreams()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
