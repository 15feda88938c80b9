package repository

import (
	"racket-club-bot/internal/models"
	"time"
)

type UserRepository interface {
	CreateOrUpdate(user *models.User) error
	GetByTelegramID(telegramID int64) (*models.User, error)
	GetByID(id int64) (*models.User, error)
	UpdateRole(telegramID int64, role string) error
}

type ClassSeriesRepository interface {
	Create(series *models.ClassSeries) error
	GetByID(id int64) (*models.ClassSeries, error)
	GetByClub(clubID int64) ([]models.ClassSeries, error)
	GetByTrainer(trainerID int64) ([]models.ClassSeries, error)
	UpdateWeekdays(id int64, weekdays []int64) error
	UpdatePartial(id int64, updates map[string]interface{}) error
	RetireExpired(before time.Time) (int, error)
}

type OccurrenceRepository interface {
	// Отклонения одного занятия от шаблона
	GetOverride(seriesID int64, date time.Time) (*models.OccurrenceOverride, error)
	ListOverrides(seriesID int64) ([]models.OccurrenceOverride, error)
	UpsertOverride(override *models.OccurrenceOverride) error
	// Сдвигает даты всех отклонений серии, включая отмены
	ShiftOverrideDates(seriesID int64, offsetDays int) error

	// Отмены
	GetCancellation(seriesID int64, date time.Time) (*models.CancellationOverride, error)
	ListCancellations(seriesID int64, start, end time.Time) ([]models.CancellationOverride, error)
	CreateCancellation(cancellation *models.CancellationOverride) error
}

type ParticipantRepository interface {
	Enroll(participant *models.Participant) error
	GetByID(id int64) (*models.Participant, error)
	GetStanding(seriesID, personID int64) (*models.Participant, error)
	GetSubstitute(seriesID, personID int64, date time.Time) (*models.Participant, error)
	ListStanding(seriesID int64) ([]models.Participant, error)
	ListSubstitutes(seriesID int64, date time.Time) ([]models.Participant, error)
	CountSubstitutes(seriesID int64, date time.Time) (int, error)
	Remove(id int64) error
}

type AttendanceRepository interface {
	Get(participantID int64, date time.Time) (*models.AttendanceRecord, error)
	ListByOccurrence(seriesID int64, date time.Time) ([]models.AttendanceRecord, error)
	Create(record *models.AttendanceRecord) error
	// UpdateStatus - условное обновление: строка меняется только если её
	// текущий статус равен from. Ноль затронутых строк = гонка или
	// заблокированная запись.
	UpdateStatus(id int64, from, to models.AttendanceStatus, reason string, markedBy *int64) (bool, error)
	CountAbsent(seriesID int64, date time.Time) (int, error)
}

type WaitlistRepository interface {
	Create(request *models.WaitlistRequest) error
	GetByID(id int64) (*models.WaitlistRequest, error)
	GetPending(seriesID int64, date time.Time, personID int64) (*models.WaitlistRequest, error)
	ListPending(seriesID int64, date time.Time) ([]models.WaitlistRequest, error)
	// Resolve переводит pending-заявку в терминальный статус.
	// false = заявка уже была обработана.
	Resolve(id int64, status models.WaitlistStatus, actorID int64) (bool, error)
	ResolveAllPending(seriesID int64, date time.Time, status models.WaitlistStatus, actorID int64) (int, error)
	DeletePending(seriesID int64, date time.Time, personID int64) (bool, error)
}
