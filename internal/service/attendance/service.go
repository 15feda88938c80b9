package attendance_service

import (
	"fmt"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/recurrence"
	"racket-club-bot/internal/repository"
	"racket-club-bot/internal/service"
)

type attendanceService struct {
	attendanceRepo  repository.AttendanceRepository
	participantRepo repository.ParticipantRepository
	occurrenceRepo  repository.OccurrenceRepository
}

func NewAttendanceService(
	attendanceRepo repository.AttendanceRepository,
	participantRepo repository.ParticipantRepository,
	occurrenceRepo repository.OccurrenceRepository,
) service.AttendanceService {
	return &attendanceService{
		attendanceRepo:  attendanceRepo,
		participantRepo: participantRepo,
		occurrenceRepo:  occurrenceRepo,
	}
}

// transition - одно разрешённое ребро машины статусов
type transition struct {
	from models.AttendanceStatus
	to   models.AttendanceStatus
}

// Из locked_absent переходов нет: фиксация пропуска финальна.
var allowedTransitions = []transition{
	{models.AttendancePending, models.AttendanceConfirmedPresent},
	{models.AttendancePending, models.AttendanceConfirmedAbsent},
	// Передумал: "не приду" можно отозвать, пока запись не заблокирована
	{models.AttendanceConfirmedAbsent, models.AttendanceConfirmedPresent},
	{models.AttendanceConfirmedPresent, models.AttendanceConfirmedAbsent},
	// Административный сброс
	{models.AttendanceConfirmedPresent, models.AttendancePending},
	{models.AttendanceConfirmedAbsent, models.AttendancePending},
	// Тренер фиксирует пропуск, обратного пути нет
	{models.AttendanceConfirmedAbsent, models.AttendanceLockedAbsent},
}

func transitionAllowed(from, to models.AttendanceStatus) bool {
	for _, t := range allowedTransitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

func (s *attendanceService) MarkPresent(seriesID int64, date time.Time, participantID int64, actorID *int64) error {
	return s.apply(seriesID, date, participantID, models.AttendanceConfirmedPresent, "", actorID)
}

// MarkAbsent переводит участника в "не приду" и тем самым освобождает
// одно место в подсчёте CapacityTracker. Лист ожидания при этом
// не трогается: выбор замены - отдельное явное действие.
func (s *attendanceService) MarkAbsent(seriesID int64, date time.Time, participantID int64, reason string, actorID *int64) error {
	return s.apply(seriesID, date, participantID, models.AttendanceConfirmedAbsent, reason, actorID)
}

func (s *attendanceService) Reset(seriesID int64, date time.Time, participantID int64, actorID int64) error {
	day := recurrence.DateOnly(date)
	record, err := s.attendanceRepo.Get(participantID, day)
	if err != nil {
		return err
	}
	if record == nil || record.Status == models.AttendancePending {
		// И так pending
		return nil
	}
	return s.apply(seriesID, date, participantID, models.AttendancePending, "", &actorID)
}

func (s *attendanceService) LockAbsence(seriesID int64, date time.Time, participantID int64, actorID int64) error {
	return s.apply(seriesID, date, participantID, models.AttendanceLockedAbsent, "", &actorID)
}

func (s *attendanceService) apply(seriesID int64, date time.Time, participantID int64, to models.AttendanceStatus, reason string, actorID *int64) error {
	day := recurrence.DateOnly(date)

	// На отменённое занятие статусы не меняются
	cancellation, err := s.occurrenceRepo.GetCancellation(seriesID, day)
	if err != nil {
		return fmt.Errorf("ошибка проверки отмены занятия: %w", err)
	}
	if cancellation != nil {
		return models.ErrOccurrenceCancelled
	}

	participant, err := s.participantRepo.GetByID(participantID)
	if err != nil {
		return err
	}
	if participant == nil {
		return models.ErrNotFound
	}
	if participant.IsSubstitute {
		// Замена существует только на свою дату
		if participant.SubstituteDate == nil || !recurrence.DateOnly(*participant.SubstituteDate).Equal(day) {
			return &models.ValidationError{Msg: "замена записана на другую дату"}
		}
	}

	record, err := s.attendanceRepo.Get(participantID, day)
	if err != nil {
		return err
	}

	from := models.AttendancePending
	if record != nil {
		from = record.Status
	}
	if !transitionAllowed(from, to) {
		return &models.InvalidStateTransitionError{From: from, To: to}
	}

	if record == nil {
		// Неявный pending материализуется при первом переходе
		now := time.Now()
		record = &models.AttendanceRecord{
			ParticipantID: participantID,
			SeriesID:      seriesID,
			Date:          day,
			Status:        to,
			Reason:        reason,
			MarkedBy:      actorID,
			MarkedAt:      &now,
		}
		return s.attendanceRepo.Create(record)
	}

	ok, err := s.attendanceRepo.UpdateStatus(record.ID, from, to, reason, actorID)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	if !ok {
		// Статус успел поменяться параллельно - перечитываем и сообщаем
		current, err := s.attendanceRepo.Get(participantID, day)
		if err != nil {
			return err
		}
		from = models.AttendancePending
		if current != nil {
			from = current.Status
		}
		return &models.InvalidStateTransitionError{From: from, To: to}
	}
	return nil
}

func (s *attendanceService) GetRecord(participantID int64, date time.Time) (*models.AttendanceRecord, error) {
	return s.attendanceRepo.Get(participantID, recurrence.DateOnly(date))
}

func (s *attendanceService) GetStatus(participantID int64, date time.Time) (models.AttendanceStatus, error) {
	record, err := s.attendanceRepo.Get(participantID, recurrence.DateOnly(date))
	if err != nil {
		return "", err
	}
	if record == nil {
		// Нет записи = придёт
		return models.AttendancePending, nil
	}
	return record.Status, nil
}

func (s *attendanceService) ListForOccurrence(seriesID int64, date time.Time) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.ListByOccurrence(seriesID, recurrence.DateOnly(date))
}
