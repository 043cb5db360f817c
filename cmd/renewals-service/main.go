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

	"github.com/nurpe/lease-renewals/internal/auth"
	"github.com/nurpe/lease-renewals/internal/config"
	"github.com/nurpe/lease-renewals/internal/db"
	"github.com/nurpe/lease-renewals/internal/events"
	"github.com/nurpe/lease-renewals/internal/excel"
	httphandler "github.com/nurpe/lease-renewals/internal/http"
	"github.com/nurpe/lease-renewals/internal/http/middleware"
	"github.com/nurpe/lease-renewals/internal/logger"
	"github.com/nurpe/lease-renewals/internal/renewal"
	"github.com/nurpe/lease-renewals/internal/repository"
	"github.com/nurpe/lease-renewals/internal/scheduler"
	"github.com/nurpe/lease-renewals/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	location, err := cfg.Renewal.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid renewal timezone")
	}

	leaseRepo := repository.NewLeaseRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	completed := events.NewBus[events.TaskCompleted]()

	leaseService := service.NewLeaseService(leaseRepo, taskRepo, service.Options{
		Excel:     excel.NewGenerator(),
		Completed: completed,
		Clock:     service.SystemClock{Location: location},
		Defaults: &renewal.Defaults{
			OwnerNoticeDays:     cfg.Renewal.OwnerNoticeDays,
			TenantNoticeDays:    cfg.Renewal.TenantNoticeDays,
			RenewalNoticeDays:   cfg.Renewal.RenewalNoticeDays,
			RenewalDeadlineDays: cfg.Renewal.RenewalDeadlineDays,
		},
		Log: log,
	})

	sweeper := scheduler.NewReminderSweeper(leaseService, cfg.Renewal.SyncCron, cfg.Renewal.SyncOnStart, location, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start reminder sweep")
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(leaseService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting lease renewals service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	sweeper.Stop()
	log.Info().Msg("lease renewals service stopped")
}
