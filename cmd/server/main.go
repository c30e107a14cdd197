package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sarcasm-review/internal/bootstrap"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env, err := bootstrap.New(config.DefaultPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer env.Close()
	logger := env.Logger

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger), handler.CORS())
	handler.NewHandler(env.Reviewer, env.Auth, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + env.Config.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Review API listening",
		zap.String("address", srv.Addr),
		zap.Bool("persistence", env.Config.PersistenceEnabled()),
		zap.Bool("auth", env.Auth != nil))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
