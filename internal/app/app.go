package app

import (
	"context"
	"fmt"
	"time"

	"daily-routine/internal/api"
	"daily-routine/internal/auth"
	"daily-routine/internal/config"
	"daily-routine/internal/database"
	"daily-routine/internal/services"
	"daily-routine/internal/telegram"
	"daily-routine/internal/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const flushTimeout = 10 * time.Second

type Application struct {
	config     *config.Config
	db         *database.Database
	bot        *telegram.Bot
	services   *services.ServiceManager
	server     *api.Server
	cron       *cron.Cron
	logger     *zap.Logger
	cancelFunc context.CancelFunc
	ctx        context.Context
}

func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	location, err := utils.LoadLocation(cfg.Routine.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	serviceManager := services.NewServiceManager(
		database.NewRepository(db),
		utils.TodayIn(location, nil),
		logger,
		services.WithDefaultColor(cfg.Routine.DefaultColor),
	)

	bot, err := telegram.NewBot(
		cfg.Telegram.Token,
		database.NewCredentialRepository(db),
		serviceManager,
		auth.Bcrypt{Cost: cfg.Auth.BcryptCost},
		location,
		logger,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	serviceManager.SetNotificationSender(bot)
	ctx, cancel := context.WithCancel(context.Background())

	openSessions := func() int { return len(serviceManager.Sessions()) }

	app := &Application{
		config:     cfg,
		db:         db,
		bot:        bot,
		services:   serviceManager,
		server:     api.New(cfg.Server.Port, db, openSessions, logger),
		cron:       cron.New(cron.WithLocation(location)),
		logger:     logger,
		cancelFunc: cancel,
		ctx:        ctx,
	}

	if err := app.setupCronJobs(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	return app, nil
}

func (a *Application) Start() error {
	a.logger.Info("🚀 Запуск приложения...")

	if err := a.bot.RestoreSessions(a.ctx); err != nil {
		a.logger.Warn("⚠️ Сессии не восстановлены", zap.Error(err))
	}

	go a.bot.Start(a.ctx)
	a.cron.Start()
	a.server.Start()

	a.logger.Info("✅ Приложение запущено",
		zap.String("bot", a.bot.GetUsername()),
		zap.String("port", a.config.Server.Port),
		zap.String("timezone", a.config.Routine.Timezone),
	)
	return nil
}

func (a *Application) Stop() error {
	a.logger.Info("🛑 Остановка приложения...")

	a.cancelFunc()
	<-a.cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("⚠️ Ошибка остановки HTTP сервера", zap.Error(err))
	}

	a.bot.Close()
	if err := a.services.Flush(ctx); err != nil {
		a.logger.Warn("⚠️ Не все записи успели сохраниться", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Warn("⚠️ Ошибка закрытия БД", zap.Error(err))
	}

	a.logger.Info("✅ Приложение остановлено")
	return nil
}

func (a *Application) setupCronJobs() error {
	// Переход дня для открытых сессий, даже если никто ничего не нажимал
	if _, err := a.cron.AddFunc(a.config.Routine.RolloverCron, func() {
		a.services.RolloverAll()
	}); err != nil {
		return fmt.Errorf("rollover cron %q: %w", a.config.Routine.RolloverCron, err)
	}

	// Итоги дня
	if _, err := a.cron.AddFunc(a.config.Routine.SummaryCron, func() {
		a.services.Notification.SendDailySummaries()
	}); err != nil {
		return fmt.Errorf("summary cron %q: %w", a.config.Routine.SummaryCron, err)
	}

	return nil
}
