package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/api/handler"
	"servicepulse/backend/internal/app"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	lg := logger.WithComponent("main")
	lg.Info("starting ServicePulse backend", "addr", cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	a, err := app.Build(ctx, cfg, app.Options{WithBot: true})
	if err != nil {
		lg.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 2. Запуск фонових горутин
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.Hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := a.Hub.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("change listener stopped", "error", err)
		}
	}()
	if a.Bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Bot.Run(ctx)
		}()
	}

	// 3. HTTP
	gin.SetMode(cfg.Server.Mode)
	h := handler.NewHandler(a.Hub, a.Complaints, a.Auth, a.Policy)
	server := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", "error", err)
	}
	wg.Wait()
}
