package attendance_service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
)

// Фейковые репозитории в памяти. Неиспользуемые методы интерфейсов
// закрыты встраиванием.

type fakeAttendanceRepo struct {
	repository.AttendanceRepository
	records map[string]*models.AttendanceRecord
	nextID  int64
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*models.AttendanceRecord)}
}

func (r *fakeAttendanceRepo) key(participantID int64, date time.Time) string {
	return date.Format("2006-01-02") + "#" + strconv.FormatInt(participantID, 10)
}

func (r *fakeAttendanceRepo) Get(participantID int64, date time.Time) (*models.AttendanceRecord, error) {
	record, ok := r.records[r.key(participantID, date)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *fakeAttendanceRepo) Create(record *models.AttendanceRecord) error {
	r.nextID++
	record.ID = r.nextID
	copied := *record
	r.records[r.key(record.ParticipantID, record.Date)] = &copied
	return nil
}

func (r *fakeAttendanceRepo) UpdateStatus(id int64, from, to models.AttendanceStatus, reason string, markedBy *int64) (bool, error) {
	for _, record := range r.records {
		if record.ID == id {
			if record.Status != from {
				return false, nil
			}
			record.Status = to
			record.Reason = reason
			record.MarkedBy = markedBy
			return true, nil
		}
	}
	return false, nil
}

type fakeParticipantRepo struct {
	repository.ParticipantRepository
	participants map[int64]*models.Participant
}

func (r *fakeParticipantRepo) GetByID(id int64) (*models.Participant, error) {
	return r.participants[id], nil
}

type fakeOccurrenceRepo struct {
	repository.OccurrenceRepository
	cancelled map[string]bool
}

func (r *fakeOccurrenceRepo) GetCancellation(seriesID int64, date time.Time) (*models.CancellationOverride, error) {
	if r.cancelled[strconv.FormatInt(seriesID, 10)+"#"+date.Format("2006-01-02")] {
		return &models.CancellationOverride{SeriesID: seriesID, Date: date}, nil
	}
	return nil, nil
}

func setup() (*fakeAttendanceRepo, *fakeParticipantRepo, *fakeOccurrenceRepo, *attendanceService) {
	attendanceRepo := newFakeAttendanceRepo()
	participantRepo := &fakeParticipantRepo{participants: map[int64]*models.Participant{
		1: {ID: 1, SeriesID: 10, PersonID: 100},
	}}
	occurrenceRepo := &fakeOccurrenceRepo{cancelled: make(map[string]bool)}
	svc := NewAttendanceService(attendanceRepo, participantRepo, occurrenceRepo).(*attendanceService)
	return attendanceRepo, participantRepo, occurrenceRepo, svc
}

var occDate = time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)

func TestImplicitPendingStatus(t *testing.T) {
	_, _, _, svc := setup()

	status, err := svc.GetStatus(1, occDate)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.AttendancePending {
		t.Errorf("без записи ожидался pending, получен %s", status)
	}
}

func TestMarkAbsentThenRetract(t *testing.T) {
	_, _, _, svc := setup()

	if err := svc.MarkAbsent(10, occDate, 1, "болею", nil); err != nil {
		t.Fatalf("отметка отсутствия: %v", err)
	}
	status, _ := svc.GetStatus(1, occDate)
	if status != models.AttendanceConfirmedAbsent {
		t.Fatalf("ожидался confirmed_absent, получен %s", status)
	}

	// Пока не заблокировано - можно передумать
	if err := svc.MarkPresent(10, occDate, 1, nil); err != nil {
		t.Fatalf("отзыв отсутствия: %v", err)
	}
	status, _ = svc.GetStatus(1, occDate)
	if status != models.AttendanceConfirmedPresent {
		t.Errorf("ожидался confirmed_present, получен %s", status)
	}
}

func TestLockReachableOnlyFromConfirmedAbsent(t *testing.T) {
	_, _, _, svc := setup()

	// Из pending заблокировать нельзя
	err := svc.LockAbsence(10, occDate, 1, 99)
	var transitionErr *models.InvalidStateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("ожидался InvalidStateTransitionError, получено %v", err)
	}

	if err := svc.MarkAbsent(10, occDate, 1, "", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.LockAbsence(10, occDate, 1, 99); err != nil {
		t.Fatalf("блокировка из confirmed_absent: %v", err)
	}

	// Из locked_absent переходов нет
	if err := svc.MarkPresent(10, occDate, 1, nil); !errors.As(err, &transitionErr) {
		t.Errorf("выход из locked_absent должен быть запрещён, получено %v", err)
	}
	if err := svc.Reset(10, occDate, 1, 99); !errors.As(err, &transitionErr) {
		t.Errorf("сброс из locked_absent должен быть запрещён, получено %v", err)
	}
}

func TestAdministrativeReset(t *testing.T) {
	_, _, _, svc := setup()

	// Сброс без записи - no-op
	if err := svc.Reset(10, occDate, 1, 99); err != nil {
		t.Fatalf("сброс без записи: %v", err)
	}

	if err := svc.MarkAbsent(10, occDate, 1, "отпуск", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(10, occDate, 1, 99); err != nil {
		t.Fatalf("сброс из confirmed_absent: %v", err)
	}
	status, _ := svc.GetStatus(1, occDate)
	if status != models.AttendancePending {
		t.Errorf("после сброса ожидался pending, получен %s", status)
	}
}

func TestCancelledOccurrenceBlocksTransitions(t *testing.T) {
	_, _, occurrenceRepo, svc := setup()
	occurrenceRepo.cancelled["10#2024-02-05"] = true

	err := svc.MarkAbsent(10, occDate, 1, "", nil)
	if !errors.Is(err, models.ErrOccurrenceCancelled) {
		t.Fatalf("ожидался ErrOccurrenceCancelled, получено %v", err)
	}

	// Ничего не записалось
	record, _ := svc.GetRecord(1, occDate)
	if record != nil {
		t.Errorf("на отменённую дату не должно быть записи, получено %+v", record)
	}
}

func TestSubstituteOnlyOnItsDate(t *testing.T) {
	_, participantRepo, _, svc := setup()
	otherDate := occDate.AddDate(0, 0, 7)
	participantRepo.participants[2] = &models.Participant{
		ID: 2, SeriesID: 10, PersonID: 200,
		IsSubstitute: true, SubstituteDate: &occDate,
	}

	if err := svc.MarkAbsent(10, occDate, 2, "", nil); err != nil {
		t.Fatalf("замена на свою дату: %v", err)
	}

	err := svc.MarkAbsent(10, otherDate, 2, "", nil)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("замена на чужую дату: ожидался ValidationError, получено %v", err)
	}
}
