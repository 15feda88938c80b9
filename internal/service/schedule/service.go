package schedule_service

import (
	"fmt"
	"sort"
	"time"

	"racket-club-bot/internal/models"
	"racket-club-bot/internal/recurrence"
	"racket-club-bot/internal/repository"
	"racket-club-bot/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type scheduleService struct {
	seriesRepo     repository.ClassSeriesRepository
	occurrenceRepo repository.OccurrenceRepository
	validate       *validator.Validate
	log            *zap.SugaredLogger
}

func NewScheduleService(
	seriesRepo repository.ClassSeriesRepository,
	occurrenceRepo repository.OccurrenceRepository,
	log *zap.SugaredLogger,
) service.ScheduleService {
	return &scheduleService{
		seriesRepo:     seriesRepo,
		occurrenceRepo: occurrenceRepo,
		validate:       validator.New(),
		log:            log,
	}
}

func (s *scheduleService) CreateSeries(input models.CreateSeriesInput, actorID int64) (*models.ClassSeries, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &models.ValidationError{Msg: err.Error()}
	}
	if recurrence.DateOnly(input.EndDate).Before(recurrence.DateOnly(input.StartDate)) {
		return nil, &models.ValidationError{Msg: "дата окончания раньше даты начала"}
	}

	weekdays := make(pq.Int64Array, 0, len(input.Weekdays))
	seen := make(map[int]bool)
	for _, wd := range input.Weekdays {
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, int64(wd))
		}
	}

	series := &models.ClassSeries{
		ClubID:            input.ClubID,
		TrainerID:         input.TrainerID,
		Name:              input.Name,
		Level:             input.Level,
		Category:          input.Category,
		Weekdays:          weekdays,
		Interval:          input.Interval,
		StartDate:         recurrence.DateOnly(input.StartDate),
		EndDate:           recurrence.DateOnly(input.EndDate),
		StartTime:         input.StartTime,
		DurationMinutes:   input.DurationMinutes,
		MaxParticipants:   input.MaxParticipants,
		OpenForEnrollment: input.OpenForEnrollment,
	}

	if err := s.seriesRepo.Create(series); err != nil {
		return nil, fmt.Errorf("ошибка создания серии: %w", err)
	}

	s.log.Infow("создана серия занятий",
		"series_id", series.ID, "name", series.Name, "actor_id", actorID)
	return series, nil
}

func (s *scheduleService) GetSeries(id int64) (*models.ClassSeries, error) {
	series, err := s.seriesRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, models.ErrNotFound
	}
	return series, nil
}

func (s *scheduleService) GetSeriesByClub(clubID int64) ([]models.ClassSeries, error) {
	return s.seriesRepo.GetByClub(clubID)
}

func (s *scheduleService) GetSeriesByTrainer(trainerID int64) ([]models.ClassSeries, error) {
	return s.seriesRepo.GetByTrainer(trainerID)
}

func (s *scheduleService) PreviewDates(seriesID int64, limit int) ([]time.Time, error) {
	series, err := s.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	return recurrence.Expand(ruleOf(series), limit), nil
}

// ApplyEdit применяет правку к одному занятию или ко всей серии.
//
// Для одного занятия перенос дня недели сдвигает только его фактическую
// дату. Для всей серии меняется сам набор дней недели: будущие даты
// пересчитываются по новому правилу, а уже сохранённые отклонения
// сдвигаются тем же смещением. Границы серии при этом не трогаются.
func (s *scheduleService) ApplyEdit(seriesID int64, scope models.EditScope, date *time.Time, change models.SeriesChange, actorID int64) error {
	series, err := s.GetSeries(seriesID)
	if err != nil {
		return err
	}

	if scope == "" {
		if date != nil {
			// Есть дата - правка может относиться и к занятию, и к серии
			return models.ErrAmbiguousScope
		}
		scope = models.ScopeAll
	}

	switch scope {
	case models.ScopeSingle:
		return s.editSingle(series, date, change, actorID)
	case models.ScopeAll:
		return s.editAll(series, change, actorID)
	default:
		return &models.ValidationError{Msg: fmt.Sprintf("неизвестный scope %q", scope)}
	}
}

func (s *scheduleService) editSingle(series *models.ClassSeries, date *time.Time, change models.SeriesChange, actorID int64) error {
	if date == nil {
		return &models.ValidationError{Msg: "для правки одного занятия нужна дата"}
	}
	day := recurrence.DateOnly(*date)

	effective := day
	if change.NewWeekday != nil {
		effective = recurrence.ShiftDate(day, day.Weekday(), *change.NewWeekday)
	}

	override := &models.OccurrenceOverride{
		SeriesID:      series.ID,
		Date:          day,
		EffectiveDate: effective,
		StartTime:     change.StartTime,
		Court:         change.Court,
		CreatedBy:     actorID,
	}
	if err := s.occurrenceRepo.UpsertOverride(override); err != nil {
		return fmt.Errorf("ошибка сохранения переноса занятия: %w", err)
	}

	s.log.Infow("изменено одно занятие",
		"series_id", series.ID, "date", day.Format("2006-01-02"),
		"effective_date", effective.Format("2006-01-02"), "actor_id", actorID)
	return nil
}

func (s *scheduleService) editAll(series *models.ClassSeries, change models.SeriesChange, actorID int64) error {
	if change.Court != nil {
		return &models.ValidationError{Msg: "корт задаётся для конкретного занятия, не для серии"}
	}

	if change.NewWeekday != nil {
		old, err := resolveOldWeekday(series, change)
		if err != nil {
			return err
		}

		offset := recurrence.WeekdayOffset(old, *change.NewWeekday)
		if offset != 0 {
			// Сохранённые отклонения едут тем же смещением,
			// остальные даты пересчитаются из нового правила
			if err := s.occurrenceRepo.ShiftOverrideDates(series.ID, offset); err != nil {
				return fmt.Errorf("ошибка сдвига отклонений: %w", err)
			}
		}

		weekdays := replaceWeekday(series.Weekdays, old, *change.NewWeekday)
		if err := s.seriesRepo.UpdateWeekdays(series.ID, weekdays); err != nil {
			return fmt.Errorf("ошибка обновления дней недели: %w", err)
		}

		s.log.Infow("перенесён день недели серии",
			"series_id", series.ID, "old", old.String(), "new", change.NewWeekday.String(),
			"offset_days", offset, "actor_id", actorID)
	}

	updates := map[string]interface{}{}
	if change.StartTime != nil {
		updates["start_time"] = *change.StartTime
	}
	if change.DurationMinutes != nil {
		updates["duration_minutes"] = *change.DurationMinutes
	}
	if len(updates) > 0 {
		if err := s.seriesRepo.UpdatePartial(series.ID, updates); err != nil {
			return fmt.Errorf("ошибка обновления серии: %w", err)
		}
	}

	return nil
}

// resolveOldWeekday определяет, какой день недели серии заменяется.
// Если в наборе один день, уточнять не нужно.
func resolveOldWeekday(series *models.ClassSeries, change models.SeriesChange) (time.Weekday, error) {
	if change.OldWeekday != nil {
		for _, wd := range series.Weekdays {
			if time.Weekday(wd) == *change.OldWeekday {
				return *change.OldWeekday, nil
			}
		}
		return 0, &models.ValidationError{Msg: fmt.Sprintf("дня %s нет в расписании серии", change.OldWeekday.String())}
	}
	if len(series.Weekdays) == 1 {
		return time.Weekday(series.Weekdays[0]), nil
	}
	return 0, &models.ValidationError{Msg: "у серии несколько дней недели, укажите заменяемый"}
}

func replaceWeekday(weekdays pq.Int64Array, old, new time.Weekday) []int64 {
	var result []int64
	seen := make(map[int64]bool)
	for _, wd := range weekdays {
		if time.Weekday(wd) == old {
			wd = int64(new)
		}
		if !seen[wd] {
			seen[wd] = true
			result = append(result, wd)
		}
	}
	return result
}

// CancelOccurrence отменяет одно занятие. Идемпотентна: повторная
// отмена возвращает существующую запись. Отметки посещения и лист
// ожидания не трогаются - они остаются как справочная информация.
func (s *scheduleService) CancelOccurrence(seriesID int64, date time.Time, reason string, actorID int64) (*models.CancellationOverride, error) {
	series, err := s.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	day := recurrence.DateOnly(date)

	if derivable, err := s.isDerivable(series, day); err != nil {
		return nil, err
	} else if !derivable {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("дата %s не входит в расписание серии", day.Format("2006-01-02"))}
	}

	existing, err := s.occurrenceRepo.GetCancellation(seriesID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cancellation := &models.CancellationOverride{
		SeriesID:    seriesID,
		Date:        day,
		Reason:      reason,
		CancelledBy: actorID,
	}
	if err := s.occurrenceRepo.CreateCancellation(cancellation); err != nil {
		return nil, fmt.Errorf("ошибка отмены занятия: %w", err)
	}
	if cancellation.ID == 0 {
		// Параллельная отмена успела раньше - забираем её запись
		return s.occurrenceRepo.GetCancellation(seriesID, day)
	}

	s.log.Infow("отменено занятие",
		"series_id", seriesID, "date", day.Format("2006-01-02"),
		"reason", reason, "actor_id", actorID)
	return cancellation, nil
}

func (s *scheduleService) IsCancelled(seriesID int64, date time.Time) (bool, error) {
	cancellation, err := s.occurrenceRepo.GetCancellation(seriesID, recurrence.DateOnly(date))
	if err != nil {
		return false, err
	}
	return cancellation != nil, nil
}

// isDerivable - выводится ли дата из правила серии или из сохранённого переноса
func (s *scheduleService) isDerivable(series *models.ClassSeries, day time.Time) (bool, error) {
	for _, d := range recurrence.Expand(ruleOf(series), 0) {
		if d.Equal(day) {
			return true, nil
		}
	}
	overrides, err := s.occurrenceRepo.ListOverrides(series.ID)
	if err != nil {
		return false, err
	}
	for _, o := range overrides {
		if recurrence.DateOnly(o.EffectiveDate).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (s *scheduleService) GetCalendarForSeries(seriesID int64, start, end time.Time) ([]models.Occurrence, error) {
	series, err := s.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	return s.expandSeries(series, recurrence.DateOnly(start), recurrence.DateOnly(end))
}

func (s *scheduleService) GetCalendarForClub(clubID int64, start, end time.Time) ([]models.Occurrence, error) {
	seriesList, err := s.seriesRepo.GetByClub(clubID)
	if err != nil {
		return nil, err
	}
	return s.expandMany(seriesList, start, end)
}

func (s *scheduleService) GetCalendarForTrainer(trainerID int64, start, end time.Time) ([]models.Occurrence, error) {
	seriesList, err := s.seriesRepo.GetByTrainer(trainerID)
	if err != nil {
		return nil, err
	}
	return s.expandMany(seriesList, start, end)
}

func (s *scheduleService) expandMany(seriesList []models.ClassSeries, start, end time.Time) ([]models.Occurrence, error) {
	start, end = recurrence.DateOnly(start), recurrence.DateOnly(end)

	var result []models.Occurrence
	for i := range seriesList {
		occurrences, err := s.expandSeries(&seriesList[i], start, end)
		if err != nil {
			return nil, err
		}
		result = append(result, occurrences...)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

// expandSeries собирает конкретные занятия серии в диапазоне:
// правило -> даты, затем поверх них переносы и отмены.
//
// Правило всегда разворачивается от собственного начала серии, а не от
// начала окна запроса: шаги длиннее недели привязаны по фазе к первой
// дате, и сдвиг точки отсчёта дал бы даты, которых в серии нет. Даты
// вне окна отбрасываются после развёртки.
func (s *scheduleService) expandSeries(series *models.ClassSeries, start, end time.Time) ([]models.Occurrence, error) {
	rule := ruleOf(series)
	if rule.End.After(end) {
		rule.End = end
	}

	byDate := make(map[string]*models.Occurrence)
	for _, d := range recurrence.Expand(rule, 0) {
		if d.Before(start) {
			continue
		}
		byDate[d.Format("2006-01-02")] = &models.Occurrence{
			SeriesID:        series.ID,
			Date:            d,
			StartTime:       series.StartTime,
			DurationMinutes: series.DurationMinutes,
			SeriesName:      series.Name,
			TrainerName:     series.TrainerName,
		}
	}

	overrides, err := s.occurrenceRepo.ListOverrides(series.ID)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		delete(byDate, recurrence.DateOnly(o.Date).Format("2006-01-02"))

		effective := recurrence.DateOnly(o.EffectiveDate)
		if effective.Before(start) || effective.After(end) {
			continue
		}
		occurrence := &models.Occurrence{
			SeriesID:        series.ID,
			Date:            effective,
			StartTime:       series.StartTime,
			DurationMinutes: series.DurationMinutes,
			SeriesName:      series.Name,
			TrainerName:     series.TrainerName,
		}
		if o.StartTime != nil {
			occurrence.StartTime = *o.StartTime
		}
		if o.Court != nil {
			occurrence.Court = *o.Court
		}
		byDate[effective.Format("2006-01-02")] = occurrence
	}

	cancellations, err := s.occurrenceRepo.ListCancellations(series.ID, start, end)
	if err != nil {
		return nil, err
	}
	for _, c := range cancellations {
		if occurrence, ok := byDate[recurrence.DateOnly(c.Date).Format("2006-01-02")]; ok {
			occurrence.Cancelled = true
			occurrence.CancelReason = c.Reason
		}
	}

	result := make([]models.Occurrence, 0, len(byDate))
	for _, occurrence := range byDate {
		result = append(result, *occurrence)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *scheduleService) RetireExpiredSeries(now time.Time) (int, error) {
	n, err := s.seriesRepo.RetireExpired(recurrence.DateOnly(now))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infow("сняты с публикации завершившиеся серии", "count", n)
	}
	return n, nil
}

func ruleOf(series *models.ClassSeries) recurrence.Rule {
	weekdays := make([]time.Weekday, 0, len(series.Weekdays))
	for _, wd := range series.Weekdays {
		weekdays = append(weekdays, time.Weekday(wd))
	}
	return recurrence.Rule{
		Weekdays: weekdays,
		Interval: series.Interval,
		Start:    series.StartDate,
		End:      series.EndDate,
	}
}
