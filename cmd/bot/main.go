package main

import (
	"context"
	"log"
	"time"

	"racket-club-bot/internal/models/config"
	"racket-club-bot/internal/notify"
	"racket-club-bot/internal/repository/attendance"
	"racket-club-bot/internal/repository/occurrence"
	"racket-club-bot/internal/repository/participant"
	"racket-club-bot/internal/repository/series"
	"racket-club-bot/internal/repository/user"
	"racket-club-bot/internal/repository/waitlist"
	attendance_service "racket-club-bot/internal/service/attendance"
	booking_service "racket-club-bot/internal/service/booking"
	notification_service "racket-club-bot/internal/service/notification"
	schedule_service "racket-club-bot/internal/service/schedule"
	database "racket-club-bot/pkg"

	"racket-club-bot/internal/service"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	// Загружаем конфигурацию
	if err := config.Load(); err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	log.Printf("🚀 Запуск в окружении: %s", config.AppConfig.Environment)

	app := fx.New(
		fx.Provide(
			newLogger,
			database.NewPostgres,
			// Репозитории
			user.NewUserRepository,
			series.NewClassSeriesRepository,
			occurrence.NewOccurrenceRepository,
			participant.NewParticipantRepository,
			attendance.NewAttendanceRepository,
			waitlist.NewWaitlistRepository,
			// Сервисы
			schedule_service.NewScheduleService,
			attendance_service.NewAttendanceService,
			booking_service.NewBookingService,
			notification_service.NewCooldownGuard,
			notification_service.NewNotificationService,
			// Доставка объявлений
			newDispatcher,
		),
		fx.Invoke(startJobs),
	)

	app.Run()
}

func newLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if config.AppConfig.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func newDispatcher(logger *zap.SugaredLogger) (notify.Dispatcher, error) {
	return notify.NewTelegramDispatcher(logger)
}

// startJobs вешает фоновые задачи на жизненный цикл приложения:
// чистка истёкших окон рассылки и снятие с публикации прошедших серий.
// Обе задачи - уборка, корректность от них не зависит.
func startJobs(
	lc fx.Lifecycle,
	notificationService service.NotificationService,
	scheduleService service.ScheduleService,
	logger *zap.SugaredLogger,
) {
	c := cron.New()

	c.AddFunc("@every 5m", func() {
		if n := notificationService.SweepExpiredCooldowns(); n > 0 {
			logger.Infow("очищены истёкшие окна рассылки", "count", n)
		}
	})

	c.AddFunc("@daily", func() {
		if _, err := scheduleService.RetireExpiredSeries(time.Now()); err != nil {
			logger.Errorw("ошибка снятия серий с публикации", "error", err)
		}
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			logger.Info("⏰ Фоновые задачи запущены")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			logger.Info("👋 Корректное завершение работы")
			return nil
		},
	})
}
