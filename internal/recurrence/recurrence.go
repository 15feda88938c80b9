// Package recurrence разворачивает правило серии в конкретные даты
// занятий и считает сдвиги при переносе дня недели.
// Вся арифметика идёт по календарным датам (полночь UTC), а не по
// моментам времени, чтобы переход на летнее время не сдвигал даты.
package recurrence

import (
	"sort"
	"time"

	"racket-club-bot/internal/models"
)

// Rule - правило повторения серии
type Rule struct {
	Weekdays []time.Weekday
	Interval models.RecurrenceInterval
	Start    time.Time
	End      time.Time
}

// DateOnly нормализует момент времени до календарной даты
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Expand разворачивает правило в отсортированный список дат.
// Для каждого дня недели берётся первая подходящая дата >= Start,
// дальше шаги по Interval.Days() до End включительно.
// limit > 0 ограничивает число дат (режим предпросмотра), 0 - без лимита.
//
// Пустой набор дней недели или Start позже End дают пустой результат:
// такие правила должны были быть отклонены валидацией раньше.
func Expand(rule Rule, limit int) []time.Time {
	start := DateOnly(rule.Start)
	end := DateOnly(rule.End)
	if len(rule.Weekdays) == 0 || start.After(end) {
		return nil
	}

	step := rule.Interval.Days()
	var dates []time.Time
	for _, wd := range rule.Weekdays {
		first := firstOnOrAfter(start, wd)
		for d := first; !d.After(end); d = d.AddDate(0, 0, step) {
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return dates
}

// firstOnOrAfter - первая дата >= from с нужным днём недели
func firstOnOrAfter(from time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}

// WeekdayOffset - кратчайший знаковый сдвиг в днях между двумя днями
// недели в круге 0-6. Результат лежит в диапазоне -3..+3, поэтому
// WeekdayOffset(a, b) == -WeekdayOffset(b, a) и перенос туда-обратно
// возвращает исходную дату.
func WeekdayOffset(old, new time.Weekday) int {
	d := (int(new) - int(old) + 7) % 7
	if d > 3 {
		d -= 7
	}
	return d
}

// ShiftDate переносит дату на другой день недели тем же сдвигом.
// При old == new дата не меняется.
func ShiftDate(date time.Time, old, new time.Weekday) time.Time {
	return DateOnly(date).AddDate(0, 0, WeekdayOffset(old, new))
}
