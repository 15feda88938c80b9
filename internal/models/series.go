package models

import (
	"time"

	"github.com/lib/pq"
)

// RecurrenceInterval - шаг повторения серии занятий
type RecurrenceInterval string

const (
	IntervalWeekly   RecurrenceInterval = "weekly"
	IntervalBiweekly RecurrenceInterval = "biweekly"
	IntervalMonthly  RecurrenceInterval = "monthly"
)

// Days возвращает шаг интервала в днях.
// Месячный интервал считается как фиксированные 30 дней,
// а не как календарный месяц (см. DESIGN.md).
func (i RecurrenceInterval) Days() int {
	switch i {
	case IntervalBiweekly:
		return 14
	case IntervalMonthly:
		return 30
	default:
		return 7
	}
}

// ClassSeries - шаблон регулярного группового занятия
type ClassSeries struct {
	ID                int64              `db:"id" json:"id"`
	ClubID            int64              `db:"club_id" json:"club_id"`
	TrainerID         int64              `db:"trainer_id" json:"trainer_id"`
	Name              string             `db:"name" json:"name"`
	Level             string             `db:"level" json:"level"`
	Category          string             `db:"category" json:"category"`
	Weekdays          pq.Int64Array      `db:"weekdays" json:"weekdays"` // 0=воскресенье .. 6=суббота
	Interval          RecurrenceInterval `db:"recurrence_interval" json:"recurrence_interval"`
	StartDate         time.Time          `db:"start_date" json:"start_date"`
	EndDate           time.Time          `db:"end_date" json:"end_date"`
	StartTime         string             `db:"start_time" json:"start_time"` // "19:30:00"
	DurationMinutes   int                `db:"duration_minutes" json:"duration_minutes"`
	MaxParticipants   int                `db:"max_participants" json:"max_participants"`
	OpenForEnrollment bool               `db:"open_for_enrollment" json:"open_for_enrollment"`
	IsActive          bool               `db:"is_active" json:"is_active"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`

	// Joined fields
	TrainerName string `db:"trainer_name" json:"trainer_name,omitempty"`
}

// CREATE TABLE club.class_series (
//     id SERIAL PRIMARY KEY,
//     club_id BIGINT NOT NULL,
//     trainer_id BIGINT REFERENCES club.users(id),
//     name TEXT NOT NULL,
//     level TEXT DEFAULT '',
//     category TEXT DEFAULT '',
//     weekdays INT[] NOT NULL,
//     recurrence_interval TEXT NOT NULL DEFAULT 'weekly',
//     start_date DATE NOT NULL,
//     end_date DATE NOT NULL,
//     start_time TIME NOT NULL,
//     duration_minutes INT NOT NULL,
//     max_participants INT NOT NULL CHECK (max_participants >= 1),
//     open_for_enrollment BOOLEAN DEFAULT TRUE,
//     is_active BOOLEAN DEFAULT TRUE,
//     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
// );

// CreateSeriesInput - входные данные для создания серии
type CreateSeriesInput struct {
	ClubID            int64              `validate:"required"`
	TrainerID         int64              `validate:"required"`
	Name              string             `validate:"required"`
	Level             string
	Category          string
	Weekdays          []int              `validate:"required,min=1,dive,min=0,max=6"`
	Interval          RecurrenceInterval `validate:"required,oneof=weekly biweekly monthly"`
	StartDate         time.Time          `validate:"required"`
	EndDate           time.Time          `validate:"required"`
	StartTime         string             `validate:"required"`
	DurationMinutes   int                `validate:"required,min=1"`
	MaxParticipants   int                `validate:"required,min=1"`
	OpenForEnrollment bool
}

// EditScope - к чему применяется правка: к одному занятию или ко всей серии
type EditScope string

const (
	ScopeSingle EditScope = "single"
	ScopeAll    EditScope = "all"
)

// SeriesChange - частичная правка серии или одного занятия.
// nil-поля не меняются.
type SeriesChange struct {
	OldWeekday      *time.Weekday // заменяемый день недели
	NewWeekday      *time.Weekday
	StartTime       *string
	Court           *string
	DurationMinutes *int
}
