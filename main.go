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

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"helpbot/api"
	"helpbot/config"
	"helpbot/platform"
	"helpbot/service"
	"helpbot/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	logger, err := platform.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogDir, "helpbot")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %s\n", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	//init database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.Open(ctx, cfg.Store)
	cancel()
	if err != nil {
		logger.Fatalf("[%s] failed to open %s store, %s", "startup", cfg.Store.Driver, err)
	}
	defer st.Close()
	logger.Infof("[%s] %s store ready, env: %s", "startup", cfg.Store.Driver, cfg.Env)

	responder := service.NewResponder(cfg.OpenAI, logger)
	notifier := service.NewNotifier(cfg.Webhook, logger)
	svc := service.NewMessageService(st, responder, notifier, logger)

	var scheduler *cron.Cron
	if cfg.ProbeSchedule != "" {
		scheduler, err = service.StartStoreProbe(cfg.ProbeSchedule, st, logger)
		if err != nil {
			logger.Fatalf("[%s] invalid STORE_PROBE_SCHEDULE %q, %s", "startup", cfg.ProbeSchedule, err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(svc, logger, cfg.Origins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("[%s] HelpBot listening on %s", "startup", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[%s] server error, %s", "startup", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("[%s] shutting down", "shutdown")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("[%s] server forced to shutdown, %s", "shutdown", err)
	}
	logger.Infof("[%s] server exited", "shutdown")
}
