package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
)

const incidentCacheTTL = 5 * time.Minute

const incidentColumns = `
			id,
			subject_id,
			type,
			description,
			ST_Y(location::geometry) as latitude,
			ST_X(location::geometry) as longitude,
			status,
			priority,
			assigned_to,
			created_at,
			updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (id, subject_id, type, description, location, status, priority, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.SubjectID,
		incident.Type,
		incident.Description,
		incident.Longitude,
		incident.Latitude,
		incident.Status,
		incident.Priority,
		incident.AssignedTo,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT` + incidentColumns + `
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: "incident", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update сохраняет изменения оператора
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			status = $1,
			priority = $2,
			assigned_to = $3,
			updated_at = $4
		WHERE id = $5;
		`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Status,
		incident.Priority,
		incident.AssignedTo,
		incident.UpdatedAt,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	// RowsAffected() == 0 значит инцидента с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return &models.NotFoundError{Kind: "incident", ID: incident.ID.String()}
	}
	return nil
}

// ListIncidents возвращает список инцидентов с фильтрами и пагинацией
func (r *IncidentRepository) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}
	if filter.Priority != "" {
		add("priority", filter.Priority)
	}
	if filter.Type != "" {
		add("type", filter.Type)
	}
	if filter.SubjectID != "" {
		add("subject_id", filter.SubjectID)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	// рассчитываем смещение
	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)

	query := fmt.Sprintf(`SELECT %s
		FROM incidents
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d;
	`, incidentColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// Stats возвращает количество инцидентов по статусам
func (r *IncidentRepository) Stats(ctx context.Context) (models.IncidentStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'investigating'),
			COUNT(*) FILTER (WHERE status = 'resolved')
		FROM incidents;
	`
	var stats models.IncidentStats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Open, &stats.Investigating, &stats.Resolved); err != nil {
		return models.IncidentStats{}, fmt.Errorf("failed to get incident stats: %w", err)
	}
	return stats, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.SubjectID,
		&incident.Type,
		&incident.Description,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Status,
		&incident.Priority,
		&incident.AssignedTo,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}
