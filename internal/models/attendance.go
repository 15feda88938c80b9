package models

import "time"

// AttendanceStatus - статус участника на конкретную дату.
// Отсутствие записи в БД трактуется как pending: участник придёт,
// пока явно не отметился иначе.
type AttendanceStatus string

const (
	AttendancePending          AttendanceStatus = "pending"
	AttendanceConfirmedPresent AttendanceStatus = "confirmed_present"
	AttendanceConfirmedAbsent  AttendanceStatus = "confirmed_absent"
	AttendanceLockedAbsent     AttendanceStatus = "locked_absent" // финальный, тренер зафиксировал пропуск
)

// IsAbsent - считается ли статус отсутствием при подсчёте мест
func (s AttendanceStatus) IsAbsent() bool {
	return s == AttendanceConfirmedAbsent || s == AttendanceLockedAbsent
}

// AttendanceRecord - отметка участника на одну дату занятия
type AttendanceRecord struct {
	ID            int64            `db:"id" json:"id"`
	ParticipantID int64            `db:"participant_id" json:"participant_id"`
	SeriesID      int64            `db:"series_id" json:"series_id"`
	Date          time.Time        `db:"date" json:"date"`
	Status        AttendanceStatus `db:"status" json:"status"`
	Reason        string           `db:"reason" json:"reason"` // причина отсутствия
	MarkedBy      *int64           `db:"marked_by" json:"marked_by,omitempty"` // nil = отметился сам
	MarkedAt      *time.Time       `db:"marked_at" json:"marked_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`

	// Joined fields
	PersonName string `db:"person_name" json:"person_name,omitempty"`
}

// CREATE TABLE club.attendance_records (
//     id SERIAL PRIMARY KEY,
//     participant_id BIGINT REFERENCES club.participants(id) ON DELETE CASCADE,
//     series_id BIGINT REFERENCES club.class_series(id) ON DELETE CASCADE,
//     date DATE NOT NULL,
//     status TEXT NOT NULL DEFAULT 'pending',
//     reason TEXT DEFAULT '',
//     marked_by BIGINT,
//     marked_at TIMESTAMP,
//     created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//     UNIQUE (participant_id, date)
// );

// SlotSignals - два независимых сигнала свободных мест.
// ByAbsence - места, освобождённые отметками "не приду" и ещё не
// закрытые заменами. ByCapacity - места, не занятые вообще.
type SlotSignals struct {
	ByAbsence  int `json:"by_absence"`
	ByCapacity int `json:"by_capacity"`
}

// Advertised - сколько мест объявлять в рассылке
func (s SlotSignals) Advertised() int {
	if s.ByAbsence > s.ByCapacity {
		return s.ByAbsence
	}
	return s.ByCapacity
}
