package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	Stats(ctx context.Context) (models.IncidentStats, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт реестра инцидентов
type IncidentService interface {
	CreateReport(ctx context.Context, incident *models.Incident) error
	RecordPanic(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	UpdateIncident(ctx context.Context, id uuid.UUID, update models.IncidentUpdate) (*models.Incident, error)
	Acknowledge(ctx context.Context, id uuid.UUID, operatorID string) (*models.Incident, error)
	Stats(ctx context.Context) (models.IncidentStats, error)
}

type incidentService struct {
	repo   IncidentRepository
	hub    *hub.Hub
	logger *logrus.Logger
	cfg    *config.Config
	now    func() time.Time
}

func NewIncidentService(repo IncidentRepository, eventHub *hub.Hub, logger *logrus.Logger, cfg *config.Config) IncidentService {
	return &incidentService{
		repo:   repo,
		hub:    eventHub,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CreateReport создает инцидент из внешнего отчёта (все типы, кроме panic)
func (s *incidentService) CreateReport(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "incident",
		"method":     "CreateReport",
		"subject_id": incident.SubjectID,
		"type":       incident.Type,
	})
	log.Info("Attempting to create a new incident report")

	switch incident.Type {
	case models.IncidentMissing, models.IncidentMedical, models.IncidentCrime, models.IncidentManualReport:
	case models.IncidentPanic:
		return &models.ValidationError{Field: "type", Reason: "panic incidents are opened by the panic workflow only"}
	default:
		return &models.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown incident type %q", incident.Type)}
	}
	if incident.Priority == "" {
		incident.Priority = defaultPriority(incident.Type)
	} else if !validPriority(incident.Priority) {
		return &models.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", incident.Priority)}
	}

	now := s.now().UTC()
	incident.ID = uuid.New()
	incident.Status = models.IncidentOpen
	incident.CreatedAt = now
	incident.UpdatedAt = now

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	s.hub.Publish(models.Event{
		Type:       models.EventIncidentOpened,
		Priority:   models.EventNormal,
		SubjectID:  incident.SubjectID,
		Incident:   incident,
		OccurredAt: now,
	})

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// RecordPanic сохраняет инцидент, уже опубликованный конечным автоматом тревоги
func (s *incidentService) RecordPanic(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "RecordPanic",
		"subject_id":  incident.SubjectID,
		"incident_id": incident.ID,
	})
	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to record panic incident")
		return fmt.Errorf("service: could not record panic incident: %w", err)
	}
	log.Info("Panic incident recorded")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// ListIncidents возвращает список инцидентов с фильтрами и пагинацией
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	if filter.Status != "" && !validIncidentStatus(filter.Status) {
		return nil, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	if filter.Priority != "" && !validPriority(filter.Priority) {
		return nil, &models.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", filter.Priority)}
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})

	incidents, err := s.repo.ListIncidents(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Debug("Incidents listed successfully")
	return incidents, nil
}

// UpdateIncident применяет изменения оператора: статус, приоритет, назначение
func (s *incidentService) UpdateIncident(ctx context.Context, id uuid.UUID, update models.IncidentUpdate) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update incident")

	if update.Status != nil && !validIncidentStatus(*update.Status) {
		return nil, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *update.Status)}
	}
	if update.Priority != nil && !validPriority(*update.Priority) {
		return nil, &models.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", *update.Priority)}
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service: could not load incident for update: %w", err)
	}

	if update.Status != nil && existing.Status == models.IncidentResolved && *update.Status != models.IncidentResolved {
		return nil, &models.InvalidTransitionError{From: string(existing.Status), Action: "reopen"}
	}
	if update.Status != nil {
		existing.Status = *update.Status
	}
	if update.Priority != nil {
		existing.Priority = *update.Priority
	}
	if update.AssignedTo != nil {
		assigned := *update.AssignedTo
		existing.AssignedTo = &assigned
	}

	return s.save(ctx, log, existing)
}

// Acknowledge переводит инцидент минимум в investigating и назначает оператора, если он ещё не назначен
func (s *incidentService) Acknowledge(ctx context.Context, id uuid.UUID, operatorID string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "Acknowledge",
		"incident_id": id,
	})

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to load incident for acknowledgement")
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service: could not load incident: %w", err)
	}

	if existing.Status == models.IncidentOpen {
		existing.Status = models.IncidentInvestigating
	}
	if existing.AssignedTo == nil && operatorID != "" {
		existing.AssignedTo = &operatorID
	}
	return s.save(ctx, log, existing)
}

// Stats возвращает число инцидентов по статусам
func (s *incidentService) Stats(ctx context.Context) (models.IncidentStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get incident stats from repository")
		return models.IncidentStats{}, fmt.Errorf("service: could not get incident stats: %w", err)
	}
	return stats, nil
}

func (s *incidentService) save(ctx context.Context, log *logrus.Entry, incident *models.Incident) (*models.Incident, error) {
	incident.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}
	if err := s.repo.InvalidateIncidentCache(ctx, incident.ID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	s.hub.Publish(models.Event{
		Type:       models.EventIncidentUpdated,
		Priority:   models.EventNormal,
		SubjectID:  incident.SubjectID,
		Incident:   incident,
		OccurredAt: incident.UpdatedAt,
	})

	log.Info("Incident updated successfully")
	return incident, nil
}

func defaultPriority(t models.IncidentType) models.Priority {
	switch t {
	case models.IncidentMissing, models.IncidentMedical, models.IncidentCrime:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

func validPriority(p models.Priority) bool {
	switch p {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	}
	return false
}

func validIncidentStatus(s models.IncidentStatus) bool {
	switch s {
	case models.IncidentOpen, models.IncidentInvestigating, models.IncidentResolved:
		return true
	}
	return false
}
