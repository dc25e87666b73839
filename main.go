package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"daily-routine/internal/app"
	"daily-routine/internal/config"
	"daily-routine/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("❌ Ошибка создания логгера: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("✅ Конфигурация загружена",
		zap.String("port", cfg.Server.Port),
		zap.String("db", cfg.Database.Path),
	)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Ошибка создания приложения", zap.Error(err))
	}

	if err := application.Start(); err != nil {
		logger.Fatal("❌ Ошибка запуска приложения", zap.Error(err))
	}
	defer application.Stop()

	waitForShutdown()
	logger.Info("👋 Приложение завершает работу")
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
