package models

import "time"

// WaitlistStatus - статус заявки в листе ожидания
type WaitlistStatus string

const (
	WaitlistPending  WaitlistStatus = "pending"
	WaitlistAccepted WaitlistStatus = "accepted"
	WaitlistRejected WaitlistStatus = "rejected"
)

// WaitlistRequest - заявка на участие в занятии без свободных мест.
// Порядок очереди определяется полем Seq.
type WaitlistRequest struct {
	ID         int64          `db:"id" json:"id"`
	SeriesID   int64          `db:"series_id" json:"series_id"`
	Date       time.Time      `db:"date" json:"date"`
	PersonID   int64          `db:"person_id" json:"person_id"`
	Status     WaitlistStatus `db:"status" json:"status"`
	Seq        int64          `db:"seq" json:"seq"`
	ResolvedBy *int64         `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// CREATE TABLE club.waitlist_requests (
//     id SERIAL PRIMARY KEY,
//     series_id BIGINT REFERENCES club.class_series(id) ON DELETE CASCADE,
//     date DATE NOT NULL,
//     person_id BIGINT REFERENCES club.users(id),
//     status TEXT NOT NULL DEFAULT 'pending',
//     seq BIGSERIAL,
//     resolved_by BIGINT,
//     resolved_at TIMESTAMP,
//     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
// );
// CREATE UNIQUE INDEX waitlist_one_pending
//     ON club.waitlist_requests (series_id, date, person_id)
//     WHERE status = 'pending';
