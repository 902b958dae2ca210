package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/feichai0017/docintel/config"
	"github.com/feichai0017/docintel/internal/service/document"
	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/worker"
)

func main() {
	pipelineCfg := cfg.GetPipelineConfig()
	redisCfg := cfg.GetRedisConfig()

	outputs := []string{"stdout"}
	if pipelineCfg.LogFile != "" {
		outputs = append(outputs, pipelineCfg.LogFile)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(pipelineCfg.LogLevel),
		logger.WithEncoding(pipelineCfg.LogEncoding),
		logger.WithOutputPaths(outputs),
		logger.WithInitialFields(map[string]interface{}{"service": "docintel-worker"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docService, err := document.GetService(ctx, log)
	if err != nil {
		log.Error("Failed to create document service", logger.Error(err))
		os.Exit(1)
	}

	documentWorker, err := worker.NewDocumentWorker(&worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   redisCfg.Concurrency,
	}, docService, log)
	if err != nil {
		log.Error("Failed to create document worker", logger.Error(err))
		os.Exit(1)
	}

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	documentWorker.Stop()
	log.Info("Worker stopped")
}
