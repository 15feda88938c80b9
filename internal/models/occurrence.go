package models

import "time"

// OccurrenceOverride - отклонение одного занятия от шаблона серии
// (перенос на другой день, другое время, другой корт).
// Занятие без отклонений отдельной строкой не хранится.
type OccurrenceOverride struct {
	ID            int64      `db:"id" json:"id"`
	SeriesID      int64      `db:"series_id" json:"series_id"`
	Date          time.Time  `db:"date" json:"date"`                     // исходная дата по правилу серии
	EffectiveDate time.Time  `db:"effective_date" json:"effective_date"` // фактическая дата после переноса
	StartTime     *string    `db:"start_time" json:"start_time,omitempty"`
	Court         *string    `db:"court" json:"court,omitempty"`
	CreatedBy     int64      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CancellationOverride - отмена одного занятия без изменения серии
type CancellationOverride struct {
	ID          int64     `db:"id" json:"id"`
	SeriesID    int64     `db:"series_id" json:"series_id"`
	Date        time.Time `db:"date" json:"date"`
	Reason      string    `db:"reason" json:"reason"`
	CancelledBy int64     `db:"cancelled_by" json:"cancelled_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CREATE TABLE club.occurrence_overrides (
//     id SERIAL PRIMARY KEY,
//     series_id BIGINT REFERENCES club.class_series(id) ON DELETE CASCADE,
//     date DATE NOT NULL,
//     effective_date DATE NOT NULL,
//     start_time TIME,
//     court TEXT,
//     created_by BIGINT,
//     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     UNIQUE (series_id, date)
// );
//
// CREATE TABLE club.cancellation_overrides (
//     id SERIAL PRIMARY KEY,
//     series_id BIGINT REFERENCES club.class_series(id) ON DELETE CASCADE,
//     date DATE NOT NULL,
//     reason TEXT DEFAULT '',
//     cancelled_by BIGINT,
//     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     UNIQUE (series_id, date)
// );

// Occurrence - конкретное занятие в календаре, собранное из правила
// серии и сохранённых отклонений. Не хранится в БД.
type Occurrence struct {
	SeriesID        int64     `json:"series_id"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Court           string    `json:"court,omitempty"`
	Cancelled       bool      `json:"cancelled"`
	CancelReason    string    `json:"cancel_reason,omitempty"`

	// Joined fields
	SeriesName  string `json:"series_name,omitempty"`
	TrainerName string `json:"trainer_name,omitempty"`
}
