package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-tracker/internal/bot"
	"daily-tracker/internal/config"
	"daily-tracker/internal/httpapi"
	"daily-tracker/internal/lock"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/seed"
	"daily-tracker/internal/service"
)

func main() {
	seedFile := flag.String("seed", "", "load a YAML fixture into the database and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalw("open database", "driver", cfg.DatabaseDriver, "error", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	locker := newLocker(ctx, cfg, logger)

	userRepo := repository.NewUserRepository(db)
	userSvc := service.NewUserService(userRepo, cfg.Location)
	categorySvc := service.NewCategoryService(repository.NewCategoryRepository(db))
	taskSvc := service.NewTaskService(db, locker, logger)
	completionSvc := service.NewCompletionService(db, locker, logger)
	streakSvc := service.NewStreakService(db, locker, logger)
	statsSvc := service.NewStatisticsService(db, logger)
	reminderSvc := service.NewReminderService(taskSvc, statsSvc, userSvc,
		repository.NewTaskRepository(db), repository.NewCompletionRepository(db))

	if *seedFile != "" {
		fx, err := seed.LoadFile(*seedFile)
		if err != nil {
			logger.Fatalw("load fixture", "file", *seedFile, "error", err)
		}
		loader := seed.NewLoader(userRepo, userSvc, taskSvc, completionSvc, logger)
		if _, err := loader.Apply(ctx, fx); err != nil {
			logger.Fatalw("apply fixture", "file", *seedFile, "error", err)
		}
		return
	}

	scheduler := service.NewSchedulerService(cfg.Location, logger)
	if _, err := scheduler.ScheduleDaily(cfg.MissedCheckTime, "statistics snapshot", func(ctx context.Context) error {
		return snapshotYesterday(ctx, userSvc, statsSvc)
	}); err != nil {
		logger.Fatalw("schedule statistics snapshot", "error", err)
	}

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, bot.Services{
			Users:       userSvc,
			Categories:  categorySvc,
			Tasks:       taskSvc,
			Completions: completionSvc,
			Statistics:  statsSvc,
			Reminders:   reminderSvc,
		}, logger)
		if err != nil {
			logger.Fatalw("create bot", "error", err)
		}
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, "daily report", telegramBot.SendDailyReports); err != nil {
			logger.Fatalw("schedule reports", "error", err)
		}
		if _, err := scheduler.ScheduleDaily(cfg.MissedCheckTime, "missed tasks", telegramBot.SendMissedNotices); err != nil {
			logger.Fatalw("schedule missed notices", "error", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	var server *http.Server
	if cfg.HTTPAddr != "" {
		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := httpapi.NewRouter(httpapi.Services{
			Users:       userSvc,
			Tasks:       taskSvc,
			Completions: completionSvc,
			Streaks:     streakSvc,
			Statistics:  statsSvc,
		}, logger)
		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Infow("http server listening", "addr", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("http server stopped", "error", err)
				stop()
			}
		}()
	}

	logger.Info("daily tracker started")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("bot stopped with error", "error", err)
		}
	} else {
		<-ctx.Done()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("http shutdown", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

// newLocker uses Redis when it is configured so several instances can share one database.
func newLocker(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) lock.Locker {
	if cfg.RedisAddr == "" {
		return lock.NewLocal()
	}
	client, err := lock.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalw("connect redis", "addr", cfg.RedisAddr, "error", err)
	}
	logger.Infow("using redis task locks", "addr", cfg.RedisAddr)
	return lock.NewRedis(client, cfg.LockTTL())
}

// snapshotYesterday stores every user's statistics for the day that just ended in their timezone.
func snapshotYesterday(ctx context.Context, users *service.UserService, stats *service.StatisticsService) error {
	all, err := users.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, user := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := stats.Daily(ctx, user.ID, users.Today(user).Prev()); err != nil {
			return err
		}
	}
	return nil
}
