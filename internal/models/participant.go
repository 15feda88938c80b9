package models

import "time"

// Participant - участник серии: либо постоянный состав,
// либо разовая замена на одну конкретную дату.
type Participant struct {
	ID             int64      `db:"id" json:"id"`
	SeriesID       int64      `db:"series_id" json:"series_id"`
	PersonID       int64      `db:"person_id" json:"person_id"`
	IsSubstitute   bool       `db:"is_substitute" json:"is_substitute"`
	SubstituteDate *time.Time `db:"substitute_date" json:"substitute_date,omitempty"` // только для замен
	EnrolledAt     time.Time  `db:"enrolled_at" json:"enrolled_at"`

	// Joined fields
	PersonName string `db:"person_name" json:"person_name,omitempty"`
}

// CREATE TABLE club.participants (
//     id SERIAL PRIMARY KEY,
//     series_id BIGINT REFERENCES club.class_series(id) ON DELETE CASCADE,
//     person_id BIGINT REFERENCES club.users(id),
//     is_substitute BOOLEAN DEFAULT FALSE,
//     substitute_date DATE,
//     enrolled_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     UNIQUE (series_id, person_id, substitute_date)
// );
