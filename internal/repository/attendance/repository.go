package attendance

import (
	"database/sql"
	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Get(participantID int64, date time.Time) (*models.AttendanceRecord, error) {
	query := `
		SELECT
			a.id, a.participant_id, a.series_id, a.date, a.status, a.reason,
			a.marked_by, a.marked_at, a.created_at, a.updated_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.attendance_records a
		JOIN club.participants p ON a.participant_id = p.id
		JOIN club.users u ON p.person_id = u.id
		WHERE a.participant_id = $1 AND a.date = $2
	`

	record := &models.AttendanceRecord{}
	err := r.db.QueryRow(query, participantID, date.Format("2006-01-02")).Scan(
		&record.ID, &record.ParticipantID, &record.SeriesID, &record.Date,
		&record.Status, &record.Reason, &record.MarkedBy, &record.MarkedAt,
		&record.CreatedAt, &record.UpdatedAt, &record.PersonName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *attendanceRepository) ListByOccurrence(seriesID int64, date time.Time) ([]models.AttendanceRecord, error) {
	query := `
		SELECT
			a.id, a.participant_id, a.series_id, a.date, a.status, a.reason,
			a.marked_by, a.marked_at, a.created_at, a.updated_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.attendance_records a
		JOIN club.participants p ON a.participant_id = p.id
		JOIN club.users u ON p.person_id = u.id
		WHERE a.series_id = $1 AND a.date = $2
		ORDER BY u.first_name, u.last_name
	`

	rows, err := r.db.Query(query, seriesID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var record models.AttendanceRecord
		err := rows.Scan(
			&record.ID, &record.ParticipantID, &record.SeriesID, &record.Date,
			&record.Status, &record.Reason, &record.MarkedBy, &record.MarkedAt,
			&record.CreatedAt, &record.UpdatedAt, &record.PersonName,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *attendanceRepository) Create(record *models.AttendanceRecord) error {
	query := `
		INSERT INTO club.attendance_records
		(participant_id, series_id, date, status, reason, marked_by, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		record.ParticipantID,
		record.SeriesID,
		record.Date.Format("2006-01-02"),
		record.Status,
		record.Reason,
		record.MarkedBy,
		record.MarkedAt,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

// UpdateStatus - условное обновление: строка трогается только если её
// статус всё ещё from. Вернёт false, если статус успел поменяться
// (гонка) или запись заблокирована.
func (r *attendanceRepository) UpdateStatus(id int64, from, to models.AttendanceStatus, reason string, markedBy *int64) (bool, error) {
	query := `
		UPDATE club.attendance_records
		SET status = $1, reason = $2, marked_by = $3,
		    marked_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.Exec(query, to, reason, markedBy, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *attendanceRepository) CountAbsent(seriesID int64, date time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM club.attendance_records
		WHERE series_id = $1 AND date = $2
		  AND status IN ('confirmed_absent', 'locked_absent')
	`
	err := r.db.Get(&count, query, seriesID, date.Format("2006-01-02"))
	return count, err
}
