package participant

import (
	"database/sql"
	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type participantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) repository.ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Enroll(participant *models.Participant) error {
	query := `
		INSERT INTO club.participants (series_id, person_id, is_substitute, substitute_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, enrolled_at
	`
	var substituteDate interface{}
	if participant.SubstituteDate != nil {
		substituteDate = participant.SubstituteDate.Format("2006-01-02")
	}
	return r.db.QueryRow(
		query,
		participant.SeriesID,
		participant.PersonID,
		participant.IsSubstitute,
		substituteDate,
	).Scan(&participant.ID, &participant.EnrolledAt)
}

func (r *participantRepository) GetByID(id int64) (*models.Participant, error) {
	query := `
		SELECT
			p.id, p.series_id, p.person_id, p.is_substitute, p.substitute_date, p.enrolled_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.participants p
		JOIN club.users u ON p.person_id = u.id
		WHERE p.id = $1
	`
	return r.scanOne(query, id)
}

func (r *participantRepository) GetStanding(seriesID, personID int64) (*models.Participant, error) {
	query := `
		SELECT
			p.id, p.series_id, p.person_id, p.is_substitute, p.substitute_date, p.enrolled_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.participants p
		JOIN club.users u ON p.person_id = u.id
		WHERE p.series_id = $1 AND p.person_id = $2 AND p.is_substitute = FALSE
	`
	return r.scanOne(query, seriesID, personID)
}

func (r *participantRepository) GetSubstitute(seriesID, personID int64, date time.Time) (*models.Participant, error) {
	query := `
		SELECT
			p.id, p.series_id, p.person_id, p.is_substitute, p.substitute_date, p.enrolled_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.participants p
		JOIN club.users u ON p.person_id = u.id
		WHERE p.series_id = $1 AND p.person_id = $2
		  AND p.is_substitute = TRUE AND p.substitute_date = $3
	`
	return r.scanOne(query, seriesID, personID, date.Format("2006-01-02"))
}

func (r *participantRepository) scanOne(query string, args ...interface{}) (*models.Participant, error) {
	participant := &models.Participant{}
	err := r.db.QueryRow(query, args...).Scan(
		&participant.ID, &participant.SeriesID, &participant.PersonID,
		&participant.IsSubstitute, &participant.SubstituteDate,
		&participant.EnrolledAt, &participant.PersonName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return participant, nil
}

func (r *participantRepository) ListStanding(seriesID int64) ([]models.Participant, error) {
	query := `
		SELECT
			p.id, p.series_id, p.person_id, p.is_substitute, p.substitute_date, p.enrolled_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.participants p
		JOIN club.users u ON p.person_id = u.id
		WHERE p.series_id = $1 AND p.is_substitute = FALSE
		ORDER BY p.enrolled_at ASC
	`
	return r.scanMany(query, seriesID)
}

func (r *participantRepository) ListSubstitutes(seriesID int64, date time.Time) ([]models.Participant, error) {
	query := `
		SELECT
			p.id, p.series_id, p.person_id, p.is_substitute, p.substitute_date, p.enrolled_at,
			u.first_name || ' ' || u.last_name as person_name
		FROM club.participants p
		JOIN club.users u ON p.person_id = u.id
		WHERE p.series_id = $1 AND p.is_substitute = TRUE AND p.substitute_date = $2
		ORDER BY p.enrolled_at ASC
	`
	return r.scanMany(query, seriesID, date.Format("2006-01-02"))
}

func (r *participantRepository) scanMany(query string, args ...interface{}) ([]models.Participant, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var participant models.Participant
		err := rows.Scan(
			&participant.ID, &participant.SeriesID, &participant.PersonID,
			&participant.IsSubstitute, &participant.SubstituteDate,
			&participant.EnrolledAt, &participant.PersonName,
		)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}

	return participants, rows.Err()
}

func (r *participantRepository) CountSubstitutes(seriesID int64, date time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM club.participants
		WHERE series_id = $1 AND is_substitute = TRUE AND substitute_date = $2
	`
	err := r.db.Get(&count, query, seriesID, date.Format("2006-01-02"))
	return count, err
}

func (r *participantRepository) Remove(id int64) error {
	query := `DELETE FROM club.participants WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
