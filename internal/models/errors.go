package models

import (
	"errors"
	"fmt"
	"time"
)

// Доменные ошибки. Возвращаются вызывающему как ожидаемые,
// восстановимые состояния; ошибки инфраструктуры (БД, сеть)
// оборачиваются через %w и в эту группу не входят.
var (
	ErrNotFound            = errors.New("запись не найдена")
	ErrAlreadyQueued       = errors.New("заявка в лист ожидания уже подана")
	ErrAlreadyResolved     = errors.New("заявка уже обработана")
	ErrOccurrenceCancelled = errors.New("занятие на эту дату отменено")
	ErrCapacityExceeded    = errors.New("нет свободных мест")
	ErrAmbiguousScope      = errors.New("не указано, менять одно занятие или всю серию")
	ErrAlreadyEnrolled     = errors.New("участник уже записан на эту дату")
	ErrNothingToAnnounce   = errors.New("нет свободных мест для объявления")
)

// ValidationError - некорректное правило серии или входные данные
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "ошибка валидации: " + e.Msg
}

// InvalidStateTransitionError - недопустимый переход статуса посещения
type InvalidStateTransitionError struct {
	From AttendanceStatus
	To   AttendanceStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("недопустимый переход статуса: из %q в %q", e.From, e.To)
}

// CooldownActiveError - повторная рассылка внутри окна ожидания
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("рассылка уже была, повторить можно через %d мин", e.RemainingMinutes())
}

// RemainingMinutes - остаток окна, округлённый вверх до целых минут
func (e *CooldownActiveError) RemainingMinutes() int {
	m := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute > 0 {
		m++
	}
	return m
}
