package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	geojson "github.com/paulmach/go.geojson"
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
)

type ZoneRepository struct {
	db *pgxpool.Pool
}

func NewZoneRepository(db *pgxpool.Pool) service.ZoneRepository {
	return &ZoneRepository{db: db}
}

// ReplaceZones заменяет весь набор зон в одной транзакции
func (r *ZoneRepository) ReplaceZones(ctx context.Context, zones []models.Zone) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin zones transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM zones;`); err != nil {
		return fmt.Errorf("failed to clear zones: %w", err)
	}

	batch := &pgx.Batch{}
	for _, z := range zones {
		geometry, err := geo.ZoneGeometry(z).MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal zone %s geometry: %w", z.ID, err)
		}
		batch.Queue(`
			INSERT INTO zones (id, name, tier, area)
			VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326));
		`, z.ID, z.Name, z.Tier, string(geometry))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert zones: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit zones: %w", err)
	}
	return nil
}

// ListZones возвращает сохранённые зоны
func (r *ZoneRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, tier, ST_AsGeoJSON(area)
		FROM zones
		ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	zones := make([]models.Zone, 0)
	for rows.Next() {
		var (
			z       models.Zone
			rawArea string
		)
		if err := rows.Scan(&z.ID, &z.Name, &z.Tier, &rawArea); err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		g, err := geojson.UnmarshalGeometry([]byte(rawArea))
		if err != nil {
			return nil, fmt.Errorf("failed to decode zone %s geometry: %w", z.ID, err)
		}
		if z.Ring, err = geo.RingFromGeometry(g); err != nil {
			return nil, fmt.Errorf("zone %s: %w", z.ID, err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return zones, nil
}
