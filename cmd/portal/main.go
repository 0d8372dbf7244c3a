package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/OneForces/banking-mvp/internal/api"
	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/kyc"
	"github.com/OneForces/banking-mvp/internal/loanflow"
	"github.com/OneForces/banking-mvp/internal/metrics"
	"github.com/OneForces/banking-mvp/internal/obclient"
	"github.com/OneForces/banking-mvp/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting portal service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := store.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	upstreamHTTP := &http.Client{Timeout: cfg.Upstream.Timeout}

	directory := obclient.NewDirectory(cfg.Banks)
	tokens := obclient.NewTokenProvider(upstreamHTTP, m)
	bankClient := obclient.NewClient(upstreamHTTP, cfg.Client.ID, cfg.Compliance, logger, m)

	flow := loanflow.NewService(directory, tokens, bankClient, kyc.NewRules(), cfg.Client, logger, m)
	apps := store.NewApplicationRepository(db.Pool)

	h := api.NewHandlers(directory, tokens, bankClient, flow, apps, cfg.Client, logger)
	router := api.NewRouter(h, logger, cfg.Server.ReadTimeout)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
