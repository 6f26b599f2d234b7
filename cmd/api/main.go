package main

import (
	"bookschema/internal/config"
	"bookschema/internal/logger"
	"bookschema/internal/server"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	srv, err := server.NewServer(startCtx, cfg, log)
	cancelStart()
	if err != nil {
		log.Fatal("Failed to start server", "error", err)
	}

	go func() {
		log.Info("Server listening", "addr", srv.HTTP.Addr)
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown", "error", err)
	}
	log.Info("Server exiting")
}
