package series

import (
	"database/sql"
	"fmt"
	"racket-club-bot/internal/models"
	"racket-club-bot/internal/repository"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type classSeriesRepository struct {
	db *sqlx.DB
}

func NewClassSeriesRepository(db *sqlx.DB) repository.ClassSeriesRepository {
	return &classSeriesRepository{db: db}
}

func (r *classSeriesRepository) Create(series *models.ClassSeries) error {
	query := `
		INSERT INTO club.class_series
		(club_id, trainer_id, name, level, category, weekdays, recurrence_interval,
		 start_date, end_date, start_time, duration_minutes, max_participants, open_for_enrollment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, is_active, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		series.ClubID,
		series.TrainerID,
		series.Name,
		series.Level,
		series.Category,
		series.Weekdays,
		series.Interval,
		series.StartDate,
		series.EndDate,
		series.StartTime,
		series.DurationMinutes,
		series.MaxParticipants,
		series.OpenForEnrollment,
	).Scan(&series.ID, &series.IsActive, &series.CreatedAt, &series.UpdatedAt)
}

func (r *classSeriesRepository) GetByID(id int64) (*models.ClassSeries, error) {
	query := `
		SELECT
			cs.id, cs.club_id, cs.trainer_id, cs.name, cs.level, cs.category,
			cs.weekdays, cs.recurrence_interval, cs.start_date, cs.end_date,
			cs.start_time, cs.duration_minutes, cs.max_participants,
			cs.open_for_enrollment, cs.is_active, cs.created_at, cs.updated_at,
			COALESCE(u.first_name || ' ' || u.last_name, '') as trainer_name
		FROM club.class_series cs
		LEFT JOIN club.users u ON cs.trainer_id = u.id
		WHERE cs.id = $1
	`

	series := &models.ClassSeries{}
	err := r.db.QueryRow(query, id).Scan(
		&series.ID, &series.ClubID, &series.TrainerID, &series.Name, &series.Level,
		&series.Category, &series.Weekdays, &series.Interval, &series.StartDate,
		&series.EndDate, &series.StartTime, &series.DurationMinutes,
		&series.MaxParticipants, &series.OpenForEnrollment, &series.IsActive,
		&series.CreatedAt, &series.UpdatedAt, &series.TrainerName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return series, nil
}

func (r *classSeriesRepository) GetByClub(clubID int64) ([]models.ClassSeries, error) {
	return r.list(`cs.club_id = $1`, clubID)
}

func (r *classSeriesRepository) GetByTrainer(trainerID int64) ([]models.ClassSeries, error) {
	return r.list(`cs.trainer_id = $1`, trainerID)
}

func (r *classSeriesRepository) list(where string, arg interface{}) ([]models.ClassSeries, error) {
	query := `
		SELECT
			cs.id, cs.club_id, cs.trainer_id, cs.name, cs.level, cs.category,
			cs.weekdays, cs.recurrence_interval, cs.start_date, cs.end_date,
			cs.start_time, cs.duration_minutes, cs.max_participants,
			cs.open_for_enrollment, cs.is_active, cs.created_at, cs.updated_at,
			COALESCE(u.first_name || ' ' || u.last_name, '') as trainer_name
		FROM club.class_series cs
		LEFT JOIN club.users u ON cs.trainer_id = u.id
		WHERE cs.is_active = TRUE AND ` + where + `
		ORDER BY cs.start_date ASC, cs.start_time ASC
	`

	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ClassSeries
	for rows.Next() {
		var series models.ClassSeries
		err := rows.Scan(
			&series.ID, &series.ClubID, &series.TrainerID, &series.Name, &series.Level,
			&series.Category, &series.Weekdays, &series.Interval, &series.StartDate,
			&series.EndDate, &series.StartTime, &series.DurationMinutes,
			&series.MaxParticipants, &series.OpenForEnrollment, &series.IsActive,
			&series.CreatedAt, &series.UpdatedAt, &series.TrainerName,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, series)
	}

	return result, rows.Err()
}

func (r *classSeriesRepository) UpdateWeekdays(id int64, weekdays []int64) error {
	query := `UPDATE club.class_series SET weekdays = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.Exec(query, pq.Int64Array(weekdays), id)
	return err
}

// UpdatePartial - частичное обновление по списку полей (как в шаблонах у тренеров)
func (r *classSeriesRepository) UpdatePartial(id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	allowed := map[string]bool{
		"name": true, "level": true, "category": true, "start_time": true,
		"duration_minutes": true, "max_participants": true,
		"open_for_enrollment": true, "trainer_id": true,
	}

	var sets []string
	var args []interface{}
	i := 1
	for field, value := range updates {
		if !allowed[field] {
			return fmt.Errorf("недопустимое поле для обновления: %s", field)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", field, i))
		args = append(args, value)
		i++
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE club.class_series SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), i,
	)
	_, err := r.db.Exec(query, args...)
	return err
}

// RetireExpired снимает с публикации серии, у которых прошла дата окончания
func (r *classSeriesRepository) RetireExpired(before time.Time) (int, error) {
	query := `
		UPDATE club.class_series
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE is_active = TRUE AND end_date < $1
	`
	res, err := r.db.Exec(query, before.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
