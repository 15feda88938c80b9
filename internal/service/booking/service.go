package booking_service

import (
	"fmt"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/recurrence"
	"racket-club-bot/internal/repository"
	"racket-club-bot/internal/service"

	"go.uber.org/zap"
)

type bookingService struct {
	seriesRepo      repository.ClassSeriesRepository
	participantRepo repository.ParticipantRepository
	attendanceRepo  repository.AttendanceRepository
	waitlistRepo    repository.WaitlistRepository
	occurrenceRepo  repository.OccurrenceRepository
	userRepo        repository.UserRepository
	occLocks        *keyedMutex
	log             *zap.SugaredLogger
}

func NewBookingService(
	seriesRepo repository.ClassSeriesRepository,
	participantRepo repository.ParticipantRepository,
	attendanceRepo repository.AttendanceRepository,
	waitlistRepo repository.WaitlistRepository,
	occurrenceRepo repository.OccurrenceRepository,
	userRepo repository.UserRepository,
	log *zap.SugaredLogger,
) service.BookingService {
	return &bookingService{
		seriesRepo:      seriesRepo,
		participantRepo: participantRepo,
		attendanceRepo:  attendanceRepo,
		waitlistRepo:    waitlistRepo,
		occurrenceRepo:  occurrenceRepo,
		userRepo:        userRepo,
		occLocks:        newKeyedMutex(),
		log:             log,
	}
}

func (s *bookingService) EnrollStanding(seriesID, personID int64) (*models.Participant, error) {
	// Проверка вместимости и запись идут под исключением по серии,
	// иначе две одновременные записи переполнят состав
	unlock := s.occLocks.lockSeries(seriesID)
	defer unlock()

	series, err := s.getSeries(seriesID)
	if err != nil {
		return nil, err
	}
	if !series.OpenForEnrollment {
		return nil, &models.ValidationError{Msg: "серия закрыта для самозаписи"}
	}
	if err := s.ensureRegistered(personID); err != nil {
		return nil, err
	}

	existing, err := s.participantRepo.GetStanding(seriesID, personID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrAlreadyEnrolled
	}

	standing, err := s.participantRepo.ListStanding(seriesID)
	if err != nil {
		return nil, err
	}
	if len(standing) >= series.MaxParticipants {
		return nil, models.ErrCapacityExceeded
	}

	participant := &models.Participant{SeriesID: seriesID, PersonID: personID}
	if err := s.participantRepo.Enroll(participant); err != nil {
		return nil, fmt.Errorf("ошибка записи в группу: %w", err)
	}
	return participant, nil
}

// AvailableSlots - сколько мест свободно на дату: вместимость минус
// постоянный состав без отметившихся "не приду" минус замены.
// Не бывает отрицательным; переполнение от гонки всплывает отдельно
// при вставке замены.
func (s *bookingService) AvailableSlots(seriesID int64, date time.Time) (int, error) {
	_, _, raw, err := s.slotMath(seriesID, recurrence.DateOnly(date))
	if err != nil {
		return 0, err
	}
	if raw < 0 {
		return 0, nil
	}
	return raw, nil
}

// SlotSignals считает два сигнала раздельно. Группа может быть
// недобрана без единой отметки "не приду", или полна при отметке,
// уже закрытой заменой - поэтому сигналы нельзя сводить к одному числу.
func (s *bookingService) SlotSignals(seriesID int64, date time.Time) (models.SlotSignals, error) {
	byAbsence, byCapacity, _, err := s.slotMath(seriesID, recurrence.DateOnly(date))
	if err != nil {
		return models.SlotSignals{}, err
	}
	return models.SlotSignals{ByAbsence: byAbsence, ByCapacity: byCapacity}, nil
}

// slotMath возвращает (места от отметок, места от недобора, сырой остаток)
func (s *bookingService) slotMath(seriesID int64, day time.Time) (int, int, int, error) {
	series, err := s.getSeries(seriesID)
	if err != nil {
		return 0, 0, 0, err
	}

	standing, err := s.participantRepo.ListStanding(seriesID)
	if err != nil {
		return 0, 0, 0, err
	}
	absent, err := s.attendanceRepo.CountAbsent(seriesID, day)
	if err != nil {
		return 0, 0, 0, err
	}
	substitutes, err := s.participantRepo.CountSubstitutes(seriesID, day)
	if err != nil {
		return 0, 0, 0, err
	}

	byAbsence := clamp(absent - substitutes)
	byCapacity := clamp(series.MaxParticipants - (len(standing) + substitutes))
	raw := series.MaxParticipants - (len(standing) - absent + substitutes)
	return byAbsence, byCapacity, raw, nil
}

func (s *bookingService) JoinWaitlist(seriesID int64, date time.Time, personID int64) (*models.WaitlistRequest, error) {
	day := recurrence.DateOnly(date)
	unlock := s.occLocks.lock(seriesID, day)
	defer unlock()

	if err := s.ensureNotCancelled(seriesID, day); err != nil {
		return nil, err
	}
	if err := s.ensureRegistered(personID); err != nil {
		return nil, err
	}
	// Постоянный состав в очередь не встаёт - место у него уже есть
	if standing, err := s.participantRepo.GetStanding(seriesID, personID); err != nil {
		return nil, err
	} else if standing != nil {
		return nil, models.ErrAlreadyEnrolled
	}

	existing, err := s.waitlistRepo.GetPending(seriesID, day, personID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrAlreadyQueued
	}

	// В очередь встают только когда мест нет
	available, err := s.AvailableSlots(seriesID, day)
	if err != nil {
		return nil, err
	}
	if available > 0 {
		return nil, &models.ValidationError{Msg: "на занятии есть свободные места, запишитесь напрямую"}
	}

	request := &models.WaitlistRequest{SeriesID: seriesID, Date: day, PersonID: personID}
	if err := s.waitlistRepo.Create(request); err != nil {
		return nil, fmt.Errorf("ошибка постановки в очередь: %w", err)
	}
	return request, nil
}

func (s *bookingService) LeaveWaitlist(seriesID int64, date time.Time, personID int64) error {
	// Удаляется только pending-заявка, терминальные не трогаем
	_, err := s.waitlistRepo.DeletePending(seriesID, recurrence.DateOnly(date), personID)
	return err
}

// WaitlistPosition - позиция в очереди, от 1
func (s *bookingService) WaitlistPosition(seriesID int64, date time.Time, personID int64) (int, error) {
	pending, err := s.waitlistRepo.ListPending(seriesID, recurrence.DateOnly(date))
	if err != nil {
		return 0, err
	}
	for i, request := range pending {
		if request.PersonID == personID {
			return i + 1, nil
		}
	}
	return 0, models.ErrNotFound
}

// AcceptRequest - тренер берёт человека из очереди: заявка закрывается,
// человек попадает в состав как замена на эту дату.
func (s *bookingService) AcceptRequest(requestID, actorID int64) error {
	request, err := s.waitlistRepo.GetByID(requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return models.ErrNotFound
	}

	day := recurrence.DateOnly(request.Date)
	unlock := s.occLocks.lock(request.SeriesID, day)
	defer unlock()

	if request.Status != models.WaitlistPending {
		return models.ErrAlreadyResolved
	}

	available, err := s.AvailableSlots(request.SeriesID, day)
	if err != nil {
		return err
	}
	if available == 0 {
		return models.ErrCapacityExceeded
	}

	// Все проверки кандидата - до закрытия заявки: заявка, закрытая
	// без вставленной замены, не подлежала бы повтору
	if err := s.ensurePlaceable(request.SeriesID, day, request.PersonID); err != nil {
		return err
	}

	ok, err := s.waitlistRepo.Resolve(requestID, models.WaitlistAccepted, actorID)
	if err != nil {
		return fmt.Errorf("ошибка принятия заявки: %w", err)
	}
	if !ok {
		return models.ErrAlreadyResolved
	}

	if _, err := s.placeSubstitute(request.SeriesID, day, request.PersonID, actorID); err != nil {
		return err
	}

	s.log.Infow("заявка из очереди принята",
		"request_id", requestID, "series_id", request.SeriesID,
		"date", day.Format("2006-01-02"), "actor_id", actorID)
	return nil
}

func (s *bookingService) RejectRequest(requestID, actorID int64) error {
	request, err := s.waitlistRepo.GetByID(requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return models.ErrNotFound
	}

	ok, err := s.waitlistRepo.Resolve(requestID, models.WaitlistRejected, actorID)
	if err != nil {
		return fmt.Errorf("ошибка отклонения заявки: %w", err)
	}
	if !ok {
		return models.ErrAlreadyResolved
	}
	return nil
}

// InsertSubstitute вставляет замену вручную и следом отклоняет все
// pending-заявки очереди на эту дату: раз тренер закрыл место сам,
// висящие заявки только вводили бы людей в заблуждение.
func (s *bookingService) InsertSubstitute(seriesID int64, date time.Time, personID, actorID int64) (*models.Participant, error) {
	day := recurrence.DateOnly(date)
	unlock := s.occLocks.lock(seriesID, day)
	defer unlock()

	if err := s.ensureNotCancelled(seriesID, day); err != nil {
		return nil, err
	}

	available, err := s.AvailableSlots(seriesID, day)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, models.ErrCapacityExceeded
	}

	participant, err := s.placeSubstitute(seriesID, day, personID, actorID)
	if err != nil {
		return nil, err
	}

	rejected, err := s.waitlistRepo.ResolveAllPending(seriesID, day, models.WaitlistRejected, actorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка отклонения заявок очереди: %w", err)
	}

	// Постфактум-проверка: писатель в обход блокировки мог переполнить
	// группу. Это всплывает, а не исправляется молча.
	if _, _, raw, err := s.slotMath(seriesID, day); err == nil && raw < 0 {
		return nil, models.ErrCapacityExceeded
	}

	s.log.Infow("вставлена замена",
		"series_id", seriesID, "date", day.Format("2006-01-02"),
		"person_id", personID, "rejected_requests", rejected, "actor_id", actorID)
	return participant, nil
}

// ensurePlaceable - можно ли вставить человека заменой на дату:
// зарегистрирован и ещё не в составе
func (s *bookingService) ensurePlaceable(seriesID int64, day time.Time, personID int64) error {
	if err := s.ensureRegistered(personID); err != nil {
		return err
	}
	if standing, err := s.participantRepo.GetStanding(seriesID, personID); err != nil {
		return err
	} else if standing != nil {
		return models.ErrAlreadyEnrolled
	}
	if substitute, err := s.participantRepo.GetSubstitute(seriesID, personID, day); err != nil {
		return err
	} else if substitute != nil {
		return models.ErrAlreadyEnrolled
	}
	return nil
}

// placeSubstitute - общая часть ручной вставки и принятия из очереди:
// участник-замена на одну дату плюс отметка "придёт".
func (s *bookingService) placeSubstitute(seriesID int64, day time.Time, personID, actorID int64) (*models.Participant, error) {
	if err := s.ensurePlaceable(seriesID, day, personID); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		SeriesID:       seriesID,
		PersonID:       personID,
		IsSubstitute:   true,
		SubstituteDate: &day,
	}
	if err := s.participantRepo.Enroll(participant); err != nil {
		return nil, fmt.Errorf("ошибка записи замены: %w", err)
	}

	now := time.Now()
	record := &models.AttendanceRecord{
		ParticipantID: participant.ID,
		SeriesID:      seriesID,
		Date:          day,
		Status:        models.AttendanceConfirmedPresent,
		MarkedBy:      &actorID,
		MarkedAt:      &now,
	}
	if err := s.attendanceRepo.Create(record); err != nil {
		return nil, fmt.Errorf("ошибка отметки замены: %w", err)
	}
	return participant, nil
}

// ensureRegistered - в состав и очередь попадают только
// зарегистрированные в клубе люди
func (s *bookingService) ensureRegistered(personID int64) error {
	person, err := s.userRepo.GetByID(personID)
	if err != nil {
		return err
	}
	if person == nil {
		return &models.ValidationError{Msg: "человек не зарегистрирован в клубе"}
	}
	return nil
}

func (s *bookingService) ensureNotCancelled(seriesID int64, day time.Time) error {
	cancellation, err := s.occurrenceRepo.GetCancellation(seriesID, day)
	if err != nil {
		return fmt.Errorf("ошибка проверки отмены занятия: %w", err)
	}
	if cancellation != nil {
		return models.ErrOccurrenceCancelled
	}
	return nil
}

func (s *bookingService) getSeries(seriesID int64) (*models.ClassSeries, error) {
	series, err := s.seriesRepo.GetByID(seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, models.ErrNotFound
	}
	return series, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
