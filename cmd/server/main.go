package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docintel/api/handlers"
	"github.com/feichai0017/docintel/api/routes"
	cfg "github.com/feichai0017/docintel/config"
	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
)

func main() {
	pipelineCfg := cfg.GetPipelineConfig()

	outputs := []string{"stdout"}
	if pipelineCfg.LogFile != "" {
		outputs = append(outputs, pipelineCfg.LogFile)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(pipelineCfg.LogLevel),
		logger.WithEncoding(pipelineCfg.LogEncoding),
		logger.WithOutputPaths(outputs),
		logger.WithInitialFields(map[string]interface{}{"service": "docintel-api"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docService, err := document.GetService(ctx, log)
	if err != nil {
		log.Fatal("Failed to get document service", logger.Error(err))
	}

	h := handlers.NewHandlers(docService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log, pipelineCfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              pipelineCfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", pipelineCfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			stop()
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := docService.CleanupTasks(ctx); err != nil {
					log.Warn("Cleanup failed", logger.Error(err))
				}
			}
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
