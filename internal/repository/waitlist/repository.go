package waitlist

import (
	"database/sql"
	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type waitlistRepository struct {
	db *sqlx.DB
}

func NewWaitlistRepository(db *sqlx.DB) repository.WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) Create(request *models.WaitlistRequest) error {
	query := `
		INSERT INTO club.waitlist_requests (series_id, date, person_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, seq, status, created_at
	`
	return r.db.QueryRow(
		query,
		request.SeriesID,
		request.Date.Format("2006-01-02"),
		request.PersonID,
	).Scan(&request.ID, &request.Seq, &request.Status, &request.CreatedAt)
}

func (r *waitlistRepository) GetByID(id int64) (*models.WaitlistRequest, error) {
	var request models.WaitlistRequest
	query := `SELECT * FROM club.waitlist_requests WHERE id = $1`
	err := r.db.Get(&request, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *waitlistRepository) GetPending(seriesID int64, date time.Time, personID int64) (*models.WaitlistRequest, error) {
	var request models.WaitlistRequest
	query := `
		SELECT * FROM club.waitlist_requests
		WHERE series_id = $1 AND date = $2 AND person_id = $3 AND status = 'pending'
	`
	err := r.db.Get(&request, query, seriesID, date.Format("2006-01-02"), personID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *waitlistRepository) ListPending(seriesID int64, date time.Time) ([]models.WaitlistRequest, error) {
	var requests []models.WaitlistRequest
	query := `
		SELECT * FROM club.waitlist_requests
		WHERE series_id = $1 AND date = $2 AND status = 'pending'
		ORDER BY seq ASC
	`
	err := r.db.Select(&requests, query, seriesID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Resolve переводит pending-заявку в терминальный статус.
// false = заявки нет или она уже обработана.
func (r *waitlistRepository) Resolve(id int64, status models.WaitlistStatus, actorID int64) (bool, error) {
	query := `
		UPDATE club.waitlist_requests
		SET status = $1, resolved_by = $2, resolved_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = 'pending'
	`
	res, err := r.db.Exec(query, status, actorID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *waitlistRepository) ResolveAllPending(seriesID int64, date time.Time, status models.WaitlistStatus, actorID int64) (int, error) {
	query := `
		UPDATE club.waitlist_requests
		SET status = $1, resolved_by = $2, resolved_at = CURRENT_TIMESTAMP
		WHERE series_id = $3 AND date = $4 AND status = 'pending'
	`
	res, err := r.db.Exec(query, status, actorID, seriesID, date.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *waitlistRepository) DeletePending(seriesID int64, date time.Time, personID int64) (bool, error) {
	query := `
		DELETE FROM club.waitlist_requests
		WHERE series_id = $1 AND date = $2 AND person_id = $3 AND status = 'pending'
	`
	res, err := r.db.Exec(query, seriesID, date.Format("2006-01-02"), personID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
