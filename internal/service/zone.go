package service

import (
	"context"
	"fmt"

	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// ZoneRepository определяет контракт хранилища геозон
type ZoneRepository interface {
	ReplaceZones(ctx context.Context, zones []models.Zone) error
	ListZones(ctx context.Context) ([]models.Zone, error)
}

// ZoneService определяет контракт каталога зон
type ZoneService interface {
	LoadZones(ctx context.Context, zones []models.Zone) error
	Restore(ctx context.Context) (int, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
	Locate(ctx context.Context, p models.Point) ([]geo.Match, error)
}

type zoneService struct {
	repo    ZoneRepository
	catalog *geo.Catalog
	logger  *logrus.Logger
}

func NewZoneService(repo ZoneRepository, catalog *geo.Catalog, logger *logrus.Logger) ZoneService {
	return &zoneService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// LoadZones целиком заменяет набор зон: сначала в хранилище, затем атомарно в каталоге
func (s *zoneService) LoadZones(ctx context.Context, zones []models.Zone) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "zone",
		"method":  "LoadZones",
		"count":   len(zones),
	})

	if err := geo.ValidateZones(zones); err != nil {
		log.WithError(err).Warn("Zone set rejected")
		return err
	}
	if err := s.repo.ReplaceZones(ctx, zones); err != nil {
		log.WithError(err).Error("Failed to persist zones")
		return fmt.Errorf("service: could not save zones: %w", err)
	}
	if err := s.catalog.Load(zones); err != nil {
		return err
	}

	log.Info("Zone catalog reloaded")
	return nil
}

// Restore загружает сохранённые зоны в каталог при старте. Пустое хранилище оставляет каталог незагруженным.
func (s *zoneService) Restore(ctx context.Context) (int, error) {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: could not restore zones: %w", err)
	}
	if len(zones) == 0 {
		return 0, nil
	}
	if err := s.catalog.Load(zones); err != nil {
		return 0, err
	}
	return len(zones), nil
}

// ListZones возвращает зоны, загруженные в каталог
func (s *zoneService) ListZones(ctx context.Context) ([]models.Zone, error) {
	if !s.catalog.Loaded() {
		return nil, models.ErrCatalogNotLoaded
	}
	return s.catalog.Zones(), nil
}

func (s *zoneService) Locate(ctx context.Context, p models.Point) ([]geo.Match, error) {
	if !geo.ValidPoint(p) {
		return nil, &models.ValidationError{Field: "point", Reason: "coordinates out of range"}
	}
	return s.catalog.Locate(p)
}
