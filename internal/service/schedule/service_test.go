package schedule_service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/recurrence"
	"racket-club-bot/internal/repository"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeSeriesRepo struct {
	repository.ClassSeriesRepository
	series map[int64]*models.ClassSeries
	nextID int64
}

func (r *fakeSeriesRepo) Create(series *models.ClassSeries) error {
	r.nextID++
	series.ID = r.nextID
	series.IsActive = true
	copied := *series
	r.series[series.ID] = &copied
	return nil
}

func (r *fakeSeriesRepo) GetByID(id int64) (*models.ClassSeries, error) {
	series, ok := r.series[id]
	if !ok {
		return nil, nil
	}
	copied := *series
	return &copied, nil
}

func (r *fakeSeriesRepo) UpdateWeekdays(id int64, weekdays []int64) error {
	r.series[id].Weekdays = pq.Int64Array(weekdays)
	return nil
}

func (r *fakeSeriesRepo) UpdatePartial(id int64, updates map[string]interface{}) error {
	series := r.series[id]
	if startTime, ok := updates["start_time"]; ok {
		series.StartTime = startTime.(string)
	}
	if duration, ok := updates["duration_minutes"]; ok {
		series.DurationMinutes = duration.(int)
	}
	return nil
}

type fakeOccurrenceRepo struct {
	repository.OccurrenceRepository
	overrides     map[string]*models.OccurrenceOverride
	cancellations map[string]*models.CancellationOverride
	nextID        int64
}

func newFakeOccurrenceRepo() *fakeOccurrenceRepo {
	return &fakeOccurrenceRepo{
		overrides:     make(map[string]*models.OccurrenceOverride),
		cancellations: make(map[string]*models.CancellationOverride),
	}
}

func occKey(seriesID int64, date time.Time) string {
	return strconv.FormatInt(seriesID, 10) + "#" + date.Format("2006-01-02")
}

func (r *fakeOccurrenceRepo) GetOverride(seriesID int64, date time.Time) (*models.OccurrenceOverride, error) {
	return r.overrides[occKey(seriesID, date)], nil
}

func (r *fakeOccurrenceRepo) ListOverrides(seriesID int64) ([]models.OccurrenceOverride, error) {
	var result []models.OccurrenceOverride
	for _, o := range r.overrides {
		if o.SeriesID == seriesID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (r *fakeOccurrenceRepo) UpsertOverride(override *models.OccurrenceOverride) error {
	key := occKey(override.SeriesID, override.Date)
	if existing, ok := r.overrides[key]; ok {
		override.ID = existing.ID
	} else {
		r.nextID++
		override.ID = r.nextID
	}
	copied := *override
	r.overrides[key] = &copied
	return nil
}

func (r *fakeOccurrenceRepo) ShiftOverrideDates(seriesID int64, offsetDays int) error {
	if offsetDays == 0 {
		return nil
	}
	shifted := make(map[string]*models.OccurrenceOverride)
	for key, o := range r.overrides {
		if o.SeriesID != seriesID {
			shifted[key] = o
			continue
		}
		o.Date = o.Date.AddDate(0, 0, offsetDays)
		o.EffectiveDate = o.EffectiveDate.AddDate(0, 0, offsetDays)
		shifted[occKey(seriesID, o.Date)] = o
	}
	r.overrides = shifted

	shiftedCancellations := make(map[string]*models.CancellationOverride)
	for key, c := range r.cancellations {
		if c.SeriesID != seriesID {
			shiftedCancellations[key] = c
			continue
		}
		c.Date = c.Date.AddDate(0, 0, offsetDays)
		shiftedCancellations[occKey(seriesID, c.Date)] = c
	}
	r.cancellations = shiftedCancellations
	return nil
}

func (r *fakeOccurrenceRepo) GetCancellation(seriesID int64, date time.Time) (*models.CancellationOverride, error) {
	return r.cancellations[occKey(seriesID, date)], nil
}

func (r *fakeOccurrenceRepo) ListCancellations(seriesID int64, start, end time.Time) ([]models.CancellationOverride, error) {
	var result []models.CancellationOverride
	for _, c := range r.cancellations {
		if c.SeriesID == seriesID && !c.Date.Before(start) && !c.Date.After(end) {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeOccurrenceRepo) CreateCancellation(cancellation *models.CancellationOverride) error {
	key := occKey(cancellation.SeriesID, cancellation.Date)
	if existing, ok := r.cancellations[key]; ok {
		cancellation.ID = existing.ID
		return nil
	}
	r.nextID++
	cancellation.ID = r.nextID
	copied := *cancellation
	r.cancellations[key] = &copied
	return nil
}

func newTestService() (*fakeSeriesRepo, *fakeOccurrenceRepo, *scheduleService) {
	seriesRepo := &fakeSeriesRepo{series: make(map[int64]*models.ClassSeries)}
	occurrenceRepo := newFakeOccurrenceRepo()
	svc := NewScheduleService(seriesRepo, occurrenceRepo, zap.NewNop().Sugar()).(*scheduleService)
	return seriesRepo, occurrenceRepo, svc
}

func validInput() models.CreateSeriesInput {
	return models.CreateSeriesInput{
		ClubID:          1,
		TrainerID:       2,
		Name:            "Взрослые, вечер",
		Weekdays:        []int{int(time.Monday), int(time.Wednesday)},
		Interval:        models.IntervalWeekly,
		StartDate:       day(2024, time.January, 1),
		EndDate:         day(2024, time.January, 31),
		StartTime:       "19:00:00",
		DurationMinutes: 90,
		MaxParticipants: 6,
	}
}

func TestCreateSeriesValidation(t *testing.T) {
	_, _, svc := newTestService()

	var validationErr *models.ValidationError

	bad := validInput()
	bad.Weekdays = nil
	if _, err := svc.CreateSeries(bad, 99); !errors.As(err, &validationErr) {
		t.Errorf("пустые дни недели: ожидался ValidationError, получено %v", err)
	}

	bad = validInput()
	bad.MaxParticipants = 0
	if _, err := svc.CreateSeries(bad, 99); !errors.As(err, &validationErr) {
		t.Errorf("вместимость 0: ожидался ValidationError, получено %v", err)
	}

	bad = validInput()
	bad.EndDate = bad.StartDate.AddDate(0, 0, -1)
	if _, err := svc.CreateSeries(bad, 99); !errors.As(err, &validationErr) {
		t.Errorf("конец раньше начала: ожидался ValidationError, получено %v", err)
	}

	bad = validInput()
	bad.Interval = "daily"
	if _, err := svc.CreateSeries(bad, 99); !errors.As(err, &validationErr) {
		t.Errorf("неизвестный интервал: ожидался ValidationError, получено %v", err)
	}

	if _, err := svc.CreateSeries(validInput(), 99); err != nil {
		t.Fatalf("корректный ввод: %v", err)
	}
}

func TestPreviewDates(t *testing.T) {
	_, _, svc := newTestService()
	series, err := svc.CreateSeries(validInput(), 99)
	if err != nil {
		t.Fatal(err)
	}

	dates, err := svc.PreviewDates(series.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 10 {
		t.Fatalf("январь 2024, пн+ср: ожидалось 10 дат, получено %d", len(dates))
	}
	if !dates[0].Equal(day(2024, time.January, 1)) || !dates[9].Equal(day(2024, time.January, 31)) {
		t.Errorf("границы: %s .. %s", dates[0].Format("2006-01-02"), dates[9].Format("2006-01-02"))
	}
}

func TestApplyEditAmbiguousScope(t *testing.T) {
	_, _, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	date := day(2024, time.January, 8)
	newTime := "20:00:00"
	err := svc.ApplyEdit(series.ID, "", &date, models.SeriesChange{StartTime: &newTime}, 99)
	if !errors.Is(err, models.ErrAmbiguousScope) {
		t.Fatalf("scope не указан при заданной дате: ожидался ErrAmbiguousScope, получено %v", err)
	}

	// Без даты возможен только scope "вся серия" - правка проходит
	if err := svc.ApplyEdit(series.ID, "", nil, models.SeriesChange{StartTime: &newTime}, 99); err != nil {
		t.Fatalf("правка серии без scope и даты: %v", err)
	}
	updated, _ := svc.GetSeries(series.ID)
	if updated.StartTime != newTime {
		t.Errorf("время серии не обновилось: %s", updated.StartTime)
	}
}

func TestEditSingleShiftsEffectiveDate(t *testing.T) {
	_, occurrenceRepo, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	// Понедельник 8 января переносится на четверг той же недели
	date := day(2024, time.January, 8)
	thursday := time.Thursday
	err := svc.ApplyEdit(series.ID, models.ScopeSingle, &date, models.SeriesChange{NewWeekday: &thursday}, 99)
	if err != nil {
		t.Fatal(err)
	}

	override, _ := occurrenceRepo.GetOverride(series.ID, date)
	if override == nil {
		t.Fatal("ожидалось сохранённое отклонение")
	}
	want := day(2024, time.January, 11)
	if !override.EffectiveDate.Equal(want) {
		t.Errorf("фактическая дата: ожидалась %s, получена %s",
			want.Format("2006-01-02"), override.EffectiveDate.Format("2006-01-02"))
	}

	// Правило серии не тронуто
	updated, _ := svc.GetSeries(series.ID)
	if len(updated.Weekdays) != 2 || time.Weekday(updated.Weekdays[0]) != time.Monday {
		t.Errorf("набор дней серии изменился: %v", updated.Weekdays)
	}
}

func TestEditAllChangesWeekdaySet(t *testing.T) {
	_, occurrenceRepo, svc := newTestService()
	input := validInput()
	input.Weekdays = []int{int(time.Monday)}
	series, _ := svc.CreateSeries(input, 99)

	// Сохранённое отклонение поедет тем же смещением
	court := "корт 2"
	date := day(2024, time.January, 8)
	if err := svc.ApplyEdit(series.ID, models.ScopeSingle, &date, models.SeriesChange{Court: &court}, 99); err != nil {
		t.Fatal(err)
	}

	wednesday := time.Wednesday
	err := svc.ApplyEdit(series.ID, models.ScopeAll, nil, models.SeriesChange{NewWeekday: &wednesday}, 99)
	if err != nil {
		t.Fatal(err)
	}

	updated, _ := svc.GetSeries(series.ID)
	if len(updated.Weekdays) != 1 || time.Weekday(updated.Weekdays[0]) != time.Wednesday {
		t.Fatalf("ожидался набор [среда], получено %v", updated.Weekdays)
	}

	// Границы серии не сдвигаются, даты пересчитываются из правила
	if !updated.StartDate.Equal(day(2024, time.January, 1)) || !updated.EndDate.Equal(day(2024, time.January, 31)) {
		t.Errorf("границы серии сдвинулись: %s .. %s",
			updated.StartDate.Format("2006-01-02"), updated.EndDate.Format("2006-01-02"))
	}
	dates, _ := svc.PreviewDates(series.ID, 0)
	for _, d := range dates {
		if d.Weekday() != time.Wednesday {
			t.Errorf("после переноса все даты - среды, получена %s (%s)", d.Format("2006-01-02"), d.Weekday())
		}
	}

	// Отклонение сдвинулось на +2 дня
	shifted, _ := occurrenceRepo.GetOverride(series.ID, day(2024, time.January, 10))
	if shifted == nil {
		t.Fatal("отклонение должно было сдвинуться на новую дату")
	}

	// У серии с несколькими днями заменяемый день обязателен
	multi := validInput()
	multiSeries, _ := svc.CreateSeries(multi, 99)
	friday := time.Friday
	err = svc.ApplyEdit(multiSeries.ID, models.ScopeAll, nil, models.SeriesChange{NewWeekday: &friday}, 99)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("несколько дней без указания заменяемого: ожидался ValidationError, получено %v", err)
	}
}

func TestCancelOccurrenceIdempotent(t *testing.T) {
	_, _, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	date := day(2024, time.January, 15)
	first, err := svc.CancelOccurrence(series.ID, date, "тренер болеет", 99)
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.CancelOccurrence(series.ID, date, "другая причина", 100)
	if err != nil {
		t.Fatalf("повторная отмена не ошибка: %v", err)
	}
	if second.ID != first.ID || second.Reason != first.Reason {
		t.Errorf("повторная отмена должна вернуть существующую запись: %+v vs %+v", first, second)
	}

	cancelled, _ := svc.IsCancelled(series.ID, date)
	if !cancelled {
		t.Error("занятие должно числиться отменённым")
	}
}

func TestCancelUnderivableDate(t *testing.T) {
	_, _, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	// 6 января 2024 - суббота, в правиле пн+ср её нет
	_, err := svc.CancelOccurrence(series.ID, day(2024, time.January, 6), "", 99)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("невыводимая дата: ожидался ValidationError, получено %v", err)
	}
}

func TestCalendarMergesOverridesAndCancellations(t *testing.T) {
	_, _, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	// Отмена одной даты и перенос другой
	if _, err := svc.CancelOccurrence(series.ID, day(2024, time.January, 3), "корт занят", 99); err != nil {
		t.Fatal(err)
	}
	moved := day(2024, time.January, 8)
	thursday := time.Thursday
	if err := svc.ApplyEdit(series.ID, models.ScopeSingle, &moved, models.SeriesChange{NewWeekday: &thursday}, 99); err != nil {
		t.Fatal(err)
	}

	calendar, err := svc.GetCalendarForSeries(series.ID, day(2024, time.January, 1), day(2024, time.January, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(calendar) != 10 {
		t.Fatalf("ожидалось 10 занятий, получено %d", len(calendar))
	}

	byDate := make(map[string]models.Occurrence)
	for _, occurrence := range calendar {
		byDate[occurrence.Date.Format("2006-01-02")] = occurrence
	}

	if occurrence, ok := byDate["2024-01-03"]; !ok || !occurrence.Cancelled || occurrence.CancelReason != "корт занят" {
		t.Errorf("3 января должно быть отменённым: %+v", occurrence)
	}
	if _, ok := byDate["2024-01-08"]; ok {
		t.Error("перенесённая дата не должна остаться в календаре")
	}
	if _, ok := byDate["2024-01-11"]; !ok {
		t.Error("занятие должно появиться на новой дате 11 января")
	}
}

// Окно запроса не сбивает фазу шага: двухнедельная серия от 1 января
// даёт 15 и 29 января, с какой бы даты ни начиналось окно
func TestCalendarWindowKeepsPhase(t *testing.T) {
	_, _, svc := newTestService()
	input := validInput()
	input.Weekdays = []int{int(time.Monday)}
	input.Interval = models.IntervalBiweekly
	series, _ := svc.CreateSeries(input, 99)

	calendar, err := svc.GetCalendarForSeries(series.ID, day(2024, time.January, 8), day(2024, time.January, 31))
	if err != nil {
		t.Fatal(err)
	}

	want := []time.Time{day(2024, time.January, 15), day(2024, time.January, 29)}
	if len(calendar) != len(want) {
		t.Fatalf("ожидалось %d занятия, получено %d: %+v", len(want), len(calendar), calendar)
	}
	for i := range want {
		if !calendar[i].Date.Equal(want[i]) {
			t.Errorf("занятие %d: ожидалась дата %s, получена %s",
				i, want[i].Format("2006-01-02"), calendar[i].Date.Format("2006-01-02"))
		}
	}
}

// Перенос дня недели у серии везёт за собой и отмены: отменённый
// понедельник становится отменённой средой, а не живым занятием
func TestEditAllMovesCancellations(t *testing.T) {
	_, _, svc := newTestService()
	input := validInput()
	input.Weekdays = []int{int(time.Monday)}
	series, _ := svc.CreateSeries(input, 99)

	if _, err := svc.CancelOccurrence(series.ID, day(2024, time.January, 8), "корт занят", 99); err != nil {
		t.Fatal(err)
	}

	wednesday := time.Wednesday
	if err := svc.ApplyEdit(series.ID, models.ScopeAll, nil, models.SeriesChange{NewWeekday: &wednesday}, 99); err != nil {
		t.Fatal(err)
	}

	if cancelled, _ := svc.IsCancelled(series.ID, day(2024, time.January, 10)); !cancelled {
		t.Error("отмена должна переехать на новую дату 10 января")
	}
	if cancelled, _ := svc.IsCancelled(series.ID, day(2024, time.January, 8)); cancelled {
		t.Error("на старой дате отмены быть не должно")
	}

	calendar, _ := svc.GetCalendarForSeries(series.ID, day(2024, time.January, 1), day(2024, time.January, 31))
	for _, occurrence := range calendar {
		if occurrence.Date.Equal(day(2024, time.January, 10)) && !occurrence.Cancelled {
			t.Error("перенесённое занятие 10 января должно остаться отменённым")
		}
	}
}

// Отмена не трогает отметки посещения - они остаются справочно
func TestCancelKeepsRecordsIntact(t *testing.T) {
	_, occurrenceRepo, svc := newTestService()
	series, _ := svc.CreateSeries(validInput(), 99)

	date := day(2024, time.January, 22)
	if _, err := svc.CancelOccurrence(series.ID, date, "", 99); err != nil {
		t.Fatal(err)
	}

	// В сторадже только запись об отмене, ничего больше не создано и не удалено
	if len(occurrenceRepo.cancellations) != 1 || len(occurrenceRepo.overrides) != 0 {
		t.Errorf("отмена создаёт ровно одну запись: cancellations=%d overrides=%d",
			len(occurrenceRepo.cancellations), len(occurrenceRepo.overrides))
	}

	// Развёртка recurrence не зависит от отмены
	dates := recurrence.Expand(ruleOf(series), 0)
	if len(dates) != 10 {
		t.Errorf("правило серии не должно меняться от отмены, дат: %d", len(dates))
	}
}
