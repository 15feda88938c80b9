package notification_service

import (
	"fmt"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/models/config"
	"racket-club-bot/internal/notify"
	"racket-club-bot/internal/recurrence"
	"racket-club-bot/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BroadcastCooldown - минимальный интервал между рассылками по одной серии
const BroadcastCooldown = 10 * time.Minute

type notificationService struct {
	scheduleService service.ScheduleService
	bookingService  service.BookingService
	dispatcher      notify.Dispatcher
	guard           *CooldownGuard
	log             *zap.SugaredLogger
}

func NewNotificationService(
	scheduleService service.ScheduleService,
	bookingService service.BookingService,
	dispatcher notify.Dispatcher,
	guard *CooldownGuard,
	log *zap.SugaredLogger,
) service.NotificationService {
	return &notificationService{
		scheduleService: scheduleService,
		bookingService:  bookingService,
		dispatcher:      dispatcher,
		guard:           guard,
		log:             log,
	}
}

// AnnounceAvailability собирает и отправляет объявление о свободных
// местах. Каждый вид объявления гейтится по своему сигналу:
// "место освободилось" - по отметкам "не приду", "есть места" -
// по недобору группы. В объявлении при этом всегда больший из двух.
func (s *notificationService) AnnounceAvailability(seriesID int64, date time.Time, kind models.AnnouncementKind, actorID int64) (*models.Announcement, error) {
	series, err := s.scheduleService.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}

	day := recurrence.DateOnly(date)
	cancelled, err := s.scheduleService.IsCancelled(seriesID, day)
	if err != nil {
		return nil, err
	}
	if cancelled {
		return nil, models.ErrOccurrenceCancelled
	}

	signals, err := s.bookingService.SlotSignals(seriesID, day)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.AnnouncementAbsenceOpened:
		if signals.ByAbsence == 0 {
			return nil, models.ErrNothingToAnnounce
		}
	case models.AnnouncementOpenEnrollment:
		if signals.ByCapacity == 0 {
			return nil, models.ErrNothingToAnnounce
		}
	default:
		return nil, &models.ValidationError{Msg: fmt.Sprintf("неизвестный вид объявления %q", kind)}
	}

	// Атомарная проверка окна: ровно одна рассылка на окно, сколько бы
	// кнопок ни нажали одновременно
	if err := s.guard.TryAcquire(seriesID, BroadcastCooldown); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		SeriesID:    seriesID,
		Kind:        kind,
		ClassName:   series.Name,
		Date:        day,
		StartTime:   series.StartTime,
		TrainerName: series.TrainerName,
		OpenSlots:   signals.Advertised(),
		SignupLink:  signupLink(seriesID, day),
	}

	if err := s.dispatcher.Dispatch(*announcement); err != nil {
		return nil, fmt.Errorf("ошибка отправки объявления: %w", err)
	}

	s.log.Infow("отправлено объявление о свободных местах",
		"series_id", seriesID, "date", day.Format("2006-01-02"),
		"kind", string(kind), "open_slots", announcement.OpenSlots, "actor_id", actorID)
	return announcement, nil
}

func (s *notificationService) CooldownRemaining(seriesID int64) time.Duration {
	return s.guard.Remaining(seriesID)
}

func (s *notificationService) SweepExpiredCooldowns() int {
	return s.guard.Sweep()
}

// signupLink - ссылка самозаписи с одноразовым токеном
func signupLink(seriesID int64, day time.Time) string {
	base := ""
	if config.AppConfig != nil {
		base = config.AppConfig.Bot.BaseURL
	}
	return fmt.Sprintf("%s/signup/%d/%s?t=%s",
		base, seriesID, day.Format("2006-01-02"), uuid.NewString())
}
