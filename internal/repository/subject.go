package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
)

const subjectCacheTTL = 10 * time.Minute

const subjectColumns = `
			id,
			name,
			nationality,
			digital_id,
			emergency_contact,
			ST_Y(location::geometry) as latitude,
			ST_X(location::geometry) as longitude,
			accuracy_meters,
			located_at,
			tier,
			zone_ids,
			safety_score,
			status,
			trail,
			created_at,
			updated_at`

type SubjectRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewSubjectRepository(db *pgxpool.Pool, redisClient *redis.Client) service.SubjectRepository {
	return &SubjectRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// SaveSubject вставляет или обновляет запись субъекта и обновляет кеш
func (r *SubjectRepository) SaveSubject(ctx context.Context, subject *models.Subject) error {
	trail, err := json.Marshal(subject.Trail)
	if err != nil {
		return fmt.Errorf("failed to marshal trail: %w", err)
	}

	var lng, lat, accuracy *float64
	var locatedAt *time.Time
	if loc := subject.Location; loc != nil {
		lng, lat, accuracy, locatedAt = &loc.Longitude, &loc.Latitude, &loc.AccuracyMeters, &loc.Timestamp
	}

	query := `
		INSERT INTO subjects (id, name, nationality, digital_id, emergency_contact, location, accuracy_meters,
			located_at, tier, zone_ids, safety_score, status, trail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			CASE WHEN $6::float8 IS NULL THEN NULL ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography END,
			$8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			nationality = EXCLUDED.nationality,
			digital_id = EXCLUDED.digital_id,
			emergency_contact = EXCLUDED.emergency_contact,
			location = EXCLUDED.location,
			accuracy_meters = EXCLUDED.accuracy_meters,
			located_at = EXCLUDED.located_at,
			tier = EXCLUDED.tier,
			zone_ids = EXCLUDED.zone_ids,
			safety_score = EXCLUDED.safety_score,
			status = EXCLUDED.status,
			trail = EXCLUDED.trail,
			updated_at = EXCLUDED.updated_at;
	`
	zoneIDs := subject.ZoneIDs
	if zoneIDs == nil {
		zoneIDs = []string{}
	}
	_, err = r.db.Exec(ctx, query,
		subject.ID,
		subject.Profile.Name,
		subject.Profile.Nationality,
		subject.Profile.DigitalID,
		subject.Profile.EmergencyContact,
		lng,
		lat,
		accuracy,
		locatedAt,
		subject.Tier,
		zoneIDs,
		subject.SafetyScore,
		subject.Status,
		trail,
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subject: %w", err)
	}

	if err := r.setSubjectCache(ctx, subject); err != nil {
		// кеш вторичен, просто сбрасываем запись
		r.redisClient.Del(ctx, subjectCacheKey(subject.ID))
	}
	return nil
}

// GetSubject возвращает субъекта, сначала из кеша Redis
func (r *SubjectRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	if cached, err := r.getSubjectFromCache(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	query := `SELECT` + subjectColumns + `
		FROM subjects
		WHERE id = $1;
	`
	subject, err := scanSubject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: "subject", ID: id}
		}
		return nil, fmt.Errorf("failed to get subject by id: %w", err)
	}
	_ = r.setSubjectCache(ctx, subject)
	return subject, nil
}

// ListSubjects возвращает субъектов с фильтром по статусу и пагинацией
func (r *SubjectRepository) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]*models.Subject, error) {
	offset := (filter.Page - 1) * filter.PageSize
	query := `SELECT` + subjectColumns + `
		FROM subjects
		WHERE ($1 = '' OR status = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]*models.Subject, 0)
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject row: %w", err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return subjects, nil
}

// SaveLocationUpdate сохраняет принятую точку в историю перемещений
func (r *SubjectRepository) SaveLocationUpdate(ctx context.Context, update *models.LocationUpdate) error {
	query := `
		INSERT INTO location_updates (subject_id, location, accuracy_meters, sampled_at, tier, safety_score, recorded_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4, $5, $6, $7, $8) RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		update.SubjectID,
		update.Location.Longitude,
		update.Location.Latitude,
		update.Location.AccuracyMeters,
		update.Location.Timestamp,
		update.Tier,
		update.SafetyScore,
		update.RecordedAt,
	).Scan(&update.ID)
	if err != nil {
		return fmt.Errorf("failed to save location update: %w", err)
	}
	return nil
}

func (r *SubjectRepository) getSubjectFromCache(ctx context.Context, id string) (*models.Subject, error) {
	val, err := r.redisClient.Get(ctx, subjectCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subject from cache: %w", err)
	}
	subject := &models.Subject{}
	if err := json.Unmarshal(val, subject); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject from cache: %w", err)
	}
	return subject, nil
}

func (r *SubjectRepository) setSubjectCache(ctx context.Context, subject *models.Subject) error {
	val, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("failed to marshal subject for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, subjectCacheKey(subject.ID), val, subjectCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set subject in cache: %w", err)
	}
	return nil
}

func subjectCacheKey(id string) string {
	return fmt.Sprintf("subject:%s", id)
}

func scanSubject(row pgx.Row) (*models.Subject, error) {
	var (
		subject   models.Subject
		lat, lng  *float64
		accuracy  *float64
		locatedAt *time.Time
		trail     []byte
	)
	err := row.Scan(
		&subject.ID,
		&subject.Profile.Name,
		&subject.Profile.Nationality,
		&subject.Profile.DigitalID,
		&subject.Profile.EmergencyContact,
		&lat,
		&lng,
		&accuracy,
		&locatedAt,
		&subject.Tier,
		&subject.ZoneIDs,
		&subject.SafetyScore,
		&subject.Status,
		&trail,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil && locatedAt != nil {
		subject.Location = &models.Location{
			Latitude:  *lat,
			Longitude: *lng,
			Timestamp: locatedAt.UTC(),
		}
		if accuracy != nil {
			subject.Location.AccuracyMeters = *accuracy
		}
	}
	if len(trail) > 0 {
		if err := json.Unmarshal(trail, &subject.Trail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trail: %w", err)
		}
	}
	return &subject, nil
}
