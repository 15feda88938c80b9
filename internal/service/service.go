package service

import (
	"racket-club-bot/internal/models"
	"time"
)

// ///// Серии занятий: создание, правки, отмены, календарь
type ScheduleService interface {
	CreateSeries(input models.CreateSeriesInput, actorID int64) (*models.ClassSeries, error)
	GetSeries(id int64) (*models.ClassSeries, error)
	GetSeriesByClub(clubID int64) ([]models.ClassSeries, error)
	GetSeriesByTrainer(trainerID int64) ([]models.ClassSeries, error)

	// Предпросмотр дат по правилу серии
	PreviewDates(seriesID int64, limit int) ([]time.Time, error)

	// Правка одного занятия или всей серии. При пустом scope и заданной
	// дате возможны оба варианта - вернётся ErrAmbiguousScope.
	ApplyEdit(seriesID int64, scope models.EditScope, date *time.Time, change models.SeriesChange, actorID int64) error

	// Отмена одного занятия. Идемпотентна: повторная отмена возвращает
	// существующую запись без ошибки.
	CancelOccurrence(seriesID int64, date time.Time, reason string, actorID int64) (*models.CancellationOverride, error)
	IsCancelled(seriesID int64, date time.Time) (bool, error)

	// Календарь: развёрнутые даты серии вместе с отменами и переносами
	GetCalendarForSeries(seriesID int64, start, end time.Time) ([]models.Occurrence, error)
	GetCalendarForClub(clubID int64, start, end time.Time) ([]models.Occurrence, error)
	GetCalendarForTrainer(trainerID int64, start, end time.Time) ([]models.Occurrence, error)

	// Снятие с публикации серий с прошедшей датой окончания
	RetireExpiredSeries(now time.Time) (int, error)
}

// ///// Статусы посещения: кто придёт, кто нет
type AttendanceService interface {
	MarkPresent(seriesID int64, date time.Time, participantID int64, actorID *int64) error
	MarkAbsent(seriesID int64, date time.Time, participantID int64, reason string, actorID *int64) error
	// Административный сброс в pending
	Reset(seriesID int64, date time.Time, participantID int64, actorID int64) error
	// Финальная фиксация пропуска тренером, обратного пути нет
	LockAbsence(seriesID int64, date time.Time, participantID int64, actorID int64) error

	GetRecord(participantID int64, date time.Time) (*models.AttendanceRecord, error)
	// Текущий статус с учётом того, что отсутствие записи = pending
	GetStatus(participantID int64, date time.Time) (models.AttendanceStatus, error)
	ListForOccurrence(seriesID int64, date time.Time) ([]models.AttendanceRecord, error)
}

// ///// Места, лист ожидания, замены
type BookingService interface {
	EnrollStanding(seriesID, personID int64) (*models.Participant, error)

	AvailableSlots(seriesID int64, date time.Time) (int, error)
	// Два независимых сигнала: места от отметок "не приду" и места от
	// незаполненной группы. Рассылки гейтятся по своему сигналу.
	SlotSignals(seriesID int64, date time.Time) (models.SlotSignals, error)

	JoinWaitlist(seriesID int64, date time.Time, personID int64) (*models.WaitlistRequest, error)
	LeaveWaitlist(seriesID int64, date time.Time, personID int64) error
	WaitlistPosition(seriesID int64, date time.Time, personID int64) (int, error)
	AcceptRequest(requestID, actorID int64) error
	RejectRequest(requestID, actorID int64) error

	// Ручная вставка замены. Закрывает одно место и отклоняет все
	// pending-заявки листа ожидания на эту дату.
	InsertSubstitute(seriesID int64, date time.Time, personID, actorID int64) (*models.Participant, error)
}

// ///// Рассылки о свободных местах
type NotificationService interface {
	// Собирает объявление, проверяет окно повтора и отдаёт его
	// транспорту. Внутри окна вернёт *models.CooldownActiveError.
	AnnounceAvailability(seriesID int64, date time.Time, kind models.AnnouncementKind, actorID int64) (*models.Announcement, error)
	CooldownRemaining(seriesID int64) time.Duration
	// Чистка истёкших записей окна, вызывается по расписанию
	SweepExpiredCooldowns() int
}
