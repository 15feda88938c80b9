package occurrence

import (
	"database/sql"
	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type occurrenceRepository struct {
	db *sqlx.DB
}

func NewOccurrenceRepository(db *sqlx.DB) repository.OccurrenceRepository {
	return &occurrenceRepository{db: db}
}

func (r *occurrenceRepository) GetOverride(seriesID int64, date time.Time) (*models.OccurrenceOverride, error) {
	var override models.OccurrenceOverride
	query := `SELECT * FROM club.occurrence_overrides WHERE series_id = $1 AND date = $2`
	err := r.db.Get(&override, query, seriesID, date.Format("2006-01-02"))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r *occurrenceRepository) ListOverrides(seriesID int64) ([]models.OccurrenceOverride, error) {
	var overrides []models.OccurrenceOverride
	query := `SELECT * FROM club.occurrence_overrides WHERE series_id = $1 ORDER BY date ASC`
	err := r.db.Select(&overrides, query, seriesID)
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *occurrenceRepository) UpsertOverride(override *models.OccurrenceOverride) error {
	query := `
		INSERT INTO club.occurrence_overrides
		(series_id, date, effective_date, start_time, court, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (series_id, date)
		DO UPDATE SET
			effective_date = EXCLUDED.effective_date,
			start_time = COALESCE(EXCLUDED.start_time, club.occurrence_overrides.start_time),
			court = COALESCE(EXCLUDED.court, club.occurrence_overrides.court),
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		override.SeriesID,
		override.Date.Format("2006-01-02"),
		override.EffectiveDate.Format("2006-01-02"),
		override.StartTime,
		override.Court,
		override.CreatedBy,
	).Scan(&override.ID, &override.CreatedAt, &override.UpdatedAt)
}

// ShiftOverrideDates сдвигает даты всех отклонений серии на offsetDays:
// и переносы, и отмены. Используется при переносе дня недели у всей
// серии - отменённое занятие остаётся отменённым на новой дате.
func (r *occurrenceRepository) ShiftOverrideDates(seriesID int64, offsetDays int) error {
	if offsetDays == 0 {
		return nil
	}
	query := `
		UPDATE club.occurrence_overrides
		SET date = date + $1::int,
		    effective_date = effective_date + $1::int,
		    updated_at = CURRENT_TIMESTAMP
		WHERE series_id = $2
	`
	if _, err := r.db.Exec(query, offsetDays, seriesID); err != nil {
		return err
	}

	query = `
		UPDATE club.cancellation_overrides
		SET date = date + $1::int
		WHERE series_id = $2
	`
	_, err := r.db.Exec(query, offsetDays, seriesID)
	return err
}

func (r *occurrenceRepository) GetCancellation(seriesID int64, date time.Time) (*models.CancellationOverride, error) {
	var cancellation models.CancellationOverride
	query := `SELECT * FROM club.cancellation_overrides WHERE series_id = $1 AND date = $2`
	err := r.db.Get(&cancellation, query, seriesID, date.Format("2006-01-02"))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &cancellation, nil
}

func (r *occurrenceRepository) ListCancellations(seriesID int64, start, end time.Time) ([]models.CancellationOverride, error) {
	var cancellations []models.CancellationOverride
	query := `
		SELECT * FROM club.cancellation_overrides
		WHERE series_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`
	err := r.db.Select(&cancellations, query, seriesID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return cancellations, nil
}

func (r *occurrenceRepository) CreateCancellation(cancellation *models.CancellationOverride) error {
	query := `
		INSERT INTO club.cancellation_overrides (series_id, date, reason, cancelled_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (series_id, date) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(
		query,
		cancellation.SeriesID,
		cancellation.Date.Format("2006-01-02"),
		cancellation.Reason,
		cancellation.CancelledBy,
	).Scan(&cancellation.ID, &cancellation.CreatedAt)
	if err == sql.ErrNoRows {
		// Уже отменено - повторная отмена не ошибка, вернётся существующая запись
		return nil
	}
	return err
}
