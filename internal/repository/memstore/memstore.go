// Package memstore - хранилище в памяти процесса для STORE_DRIVER=memory и тестов.
// Данные не переживают перезапуск.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

type SubjectStore struct {
	mu       sync.RWMutex
	subjects map[string]*models.Subject
	updates  []models.LocationUpdate
}

func NewSubjectStore() *SubjectStore {
	return &SubjectStore{subjects: make(map[string]*models.Subject)}
}

func (s *SubjectStore) SaveSubject(ctx context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = subject.Clone()
	return nil
}

func (s *SubjectStore) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "subject", ID: id}
	}
	return subject.Clone(), nil
}

func (s *SubjectStore) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]*models.Subject, error) {
	s.mu.RLock()
	all := make([]*models.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		if filter.Status == "" || subject.Status == filter.Status {
			all = append(all, subject.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, filter.Page, filter.PageSize), nil
}

func (s *SubjectStore) SaveLocationUpdate(ctx context.Context, update *models.LocationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	update.ID = int64(len(s.updates) + 1)
	s.updates = append(s.updates, *update)
	return nil
}

// LocationUpdates возвращает историю точек субъекта в порядке записи
func (s *SubjectStore) LocationUpdates(subjectID string) []models.LocationUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LocationUpdate
	for _, u := range s.updates {
		if u.SubjectID == subjectID {
			out = append(out, u)
		}
	}
	return out
}

type IncidentStore struct {
	mu        sync.RWMutex
	incidents map[uuid.UUID]*models.Incident
}

func NewIncidentStore() *IncidentStore {
	return &IncidentStore{incidents: make(map[uuid.UUID]*models.Incident)}
}

func (s *IncidentStore) Create(ctx context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *incident
	s.incidents[incident.ID] = &c
	return nil
}

func (s *IncidentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	incident, ok := s.incidents[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "incident", ID: id.String()}
	}
	c := *incident
	return &c, nil
}

func (s *IncidentStore) Update(ctx context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[incident.ID]; !ok {
		return &models.NotFoundError{Kind: "incident", ID: incident.ID.String()}
	}
	c := *incident
	s.incidents[incident.ID] = &c
	return nil
}

func (s *IncidentStore) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	s.mu.RLock()
	all := make([]*models.Incident, 0, len(s.incidents))
	for _, incident := range s.incidents {
		if filter.Status != "" && incident.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && incident.Priority != filter.Priority {
			continue
		}
		if filter.Type != "" && incident.Type != filter.Type {
			continue
		}
		if filter.SubjectID != "" && incident.SubjectID != filter.SubjectID {
			continue
		}
		c := *incident
		all = append(all, &c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, filter.Page, filter.PageSize), nil
}

func (s *IncidentStore) Stats(ctx context.Context) (models.IncidentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats models.IncidentStats
	for _, incident := range s.incidents {
		switch incident.Status {
		case models.IncidentOpen:
			stats.Open++
		case models.IncidentInvestigating:
			stats.Investigating++
		case models.IncidentResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

// Кеш не нужен: сами записи уже в памяти
func (s *IncidentStore) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	return nil, nil
}

func (s *IncidentStore) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	return nil
}

func (s *IncidentStore) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	return nil
}

type ZoneStore struct {
	mu    sync.RWMutex
	zones []models.Zone
}

func NewZoneStore() *ZoneStore {
	return &ZoneStore{}
}

func (s *ZoneStore) ReplaceZones(ctx context.Context, zones []models.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append([]models.Zone(nil), zones...)
	return nil
}

func (s *ZoneStore) ListZones(ctx context.Context) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Zone(nil), s.zones...), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+pageSize, len(items))]
}
