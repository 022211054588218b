package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matechat/matechat/api"
	"github.com/matechat/matechat/api/validator"
	"github.com/matechat/matechat/chat"
	"github.com/matechat/matechat/hub"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file loaded", "error", err.Error())
	}
	addr := os.Getenv("CHAT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	store := chat.NewStore()
	store.Seed()

	h := hub.New(logger)
	svc := &chat.Service{
		Store:     store,
		Responder: &chat.Responder{},
		Hub:       h,
		Logger:    logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", &api.API{
		Logger:   logger,
		Chat:     svc,
		Realtime: h,
		Val:      validator.New(),
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err.Error())
	}
	logger.Info("Server exited")
}
