package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/scoring"
	"github.com/sirupsen/logrus"
)

const maxSubjectIDLength = 128

// SubjectRepository определяет контракт хранилища субъектов
type SubjectRepository interface {
	SaveSubject(ctx context.Context, subject *models.Subject) error
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]*models.Subject, error)
	SaveLocationUpdate(ctx context.Context, update *models.LocationUpdate) error
}

// IngestResult - итог приёма одной точки местоположения
type IngestResult struct {
	Subject    *models.Subject
	Tier       models.Tier
	ScoreDelta int
	Degraded   bool
}

// SubjectService определяет контракт приёма местоположений и пересчёта счёта
type SubjectService interface {
	Register(ctx context.Context, id string, profile models.Profile) (*models.Subject, error)
	Ingest(ctx context.Context, id string, loc models.Location) (*IngestResult, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]*models.Subject, error)
	Recompute(ctx context.Context, id string) (*models.Subject, error)
	Sweep(ctx context.Context) int
	Stats(ctx context.Context) (*models.SubjectStats, error)
	Restore(ctx context.Context) (int, error)
}

type subjectService struct {
	registry  *Registry
	repo      SubjectRepository
	catalog   *geo.Catalog
	engine    *scoring.Engine
	hub       *hub.Hub
	persister *Persister
	logger    *logrus.Logger
	cfg       *config.Config
	now       func() time.Time
}

func NewSubjectService(
	registry *Registry,
	repo SubjectRepository,
	catalog *geo.Catalog,
	engine *scoring.Engine,
	eventHub *hub.Hub,
	persister *Persister,
	logger *logrus.Logger,
	cfg *config.Config,
) SubjectService {
	return &subjectService{
		registry:  registry,
		repo:      repo,
		catalog:   catalog,
		engine:    engine,
		hub:       eventHub,
		persister: persister,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register идемпотентно регистрирует субъекта. Повторная регистрация возвращает существующую запись.
func (s *subjectService) Register(ctx context.Context, id string, profile models.Profile) (*models.Subject, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "subject",
		"method":     "Register",
		"subject_id": id,
	})
	if err := validateSubjectID(id); err != nil {
		return nil, err
	}

	entry, err := s.registry.acquire(ctx, id)
	switch {
	case err == nil:
		entry.mu.Lock()
		existing := entry.subject.Clone()
		entry.mu.Unlock()
		log.Debug("Subject already registered")
		return existing, nil
	case !models.IsNotFound(err):
		log.WithError(err).Error("Failed to look up subject")
		return nil, fmt.Errorf("service: could not register subject: %w", err)
	}

	now := s.now().UTC()
	subject := &models.Subject{
		ID:          id,
		Profile:     profile,
		Tier:        models.TierSafe,
		SafetyScore: s.cfg.InitialSafetyScore,
		Status:      models.StatusFromScore(s.cfg.InitialSafetyScore),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry, created := s.registry.adopt(subject)

	entry.mu.Lock()
	snapshot := entry.subject.Clone()
	entry.mu.Unlock()

	if !created {
		return snapshot, nil
	}
	if err := s.repo.SaveSubject(ctx, snapshot); err != nil {
		log.WithError(err).Error("Failed to save subject in repository")
		return nil, fmt.Errorf("service: could not save subject: %w", err)
	}
	log.Info("Subject registered")
	return snapshot, nil
}

// Ingest принимает точку местоположения, пересчитывает зону, счёт и статус
func (s *subjectService) Ingest(ctx context.Context, id string, loc models.Location) (*IngestResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "subject",
		"method":     "Ingest",
		"subject_id": id,
	})

	now := s.now().UTC()
	if err := s.validateLocation(loc, now); err != nil {
		log.WithError(err).Debug("Location sample rejected")
		return nil, err
	}
	loc.Timestamp = loc.Timestamp.UTC()

	entry, err := s.registry.acquire(ctx, id)
	if err != nil {
		if !models.IsNotFound(err) || !s.cfg.AutoRegisterSubjects {
			return nil, err
		}
		if _, err := s.Register(ctx, id, models.Profile{Name: id}); err != nil {
			return nil, err
		}
		if entry, err = s.registry.acquire(ctx, id); err != nil {
			return nil, err
		}
	}

	tier := models.TierSafe
	var zoneIDs []string
	matches, catErr := s.catalog.Locate(loc.Point())
	degraded := false
	if catErr != nil {
		degraded = true
		log.WithError(catErr).Warn("Zone catalog unavailable, assuming safe tier")
	} else if len(matches) > 0 {
		tier = matches[0].Tier
		for _, m := range matches {
			zoneIDs = append(zoneIDs, m.Zone.ID)
		}
	}

	entry.mu.Lock()
	if !entry.lastAccepted.IsZero() && loc.Timestamp.Before(entry.lastAccepted) {
		last := entry.lastAccepted
		entry.mu.Unlock()
		return nil, &models.ValidationError{
			Field:  "timestamp",
			Reason: fmt.Sprintf("sample at %s is older than last accepted sample at %s", loc.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339)),
		}
	}

	subject := entry.subject
	prevStatus, prevTier, prevScore := subject.Status, subject.Tier, subject.SafetyScore

	entry.appendTrail(models.TrailPoint{Location: loc, Tier: tier}, s.cfg.TrailMaxSamples, s.cfg.TrailMaxAge)
	score := s.engine.Compute(prevScore, subject.Trail, tier, now)

	current := loc
	subject.Location = &current
	subject.Tier = tier
	subject.ZoneIDs = zoneIDs
	subject.SafetyScore = score
	subject.Status = entry.statusFor(score)
	subject.UpdatedAt = now
	entry.lastAccepted = loc.Timestamp

	var ev models.Event
	if subject.Status != prevStatus || tier != prevTier {
		ev = entry.event(models.EventStatusChange, s.statusPriority(entry), now)
		ev.PrevStatus = prevStatus
	} else {
		ev = entry.event(models.EventPosition, models.EventLow, now)
	}
	// публикация и постановка записи под блокировкой субъекта сохраняют порядок его событий и снимков
	s.hub.Publish(ev)

	snapshot := subject.Clone()
	s.persistSubject(snapshot, &models.LocationUpdate{
		SubjectID:   id,
		Location:    loc,
		Tier:        tier,
		SafetyScore: score,
		RecordedAt:  now,
	})
	entry.mu.Unlock()

	if snapshot.Status != prevStatus {
		log.WithFields(logrus.Fields{
			"from":  prevStatus,
			"to":    snapshot.Status,
			"score": score,
			"tier":  tier,
		}).Info("Subject status changed")
	}

	return &IngestResult{
		Subject:    snapshot,
		Tier:       tier,
		ScoreDelta: score - prevScore,
		Degraded:   degraded,
	}, nil
}

// GetSubject возвращает текущее состояние субъекта
func (s *subjectService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	entry, err := s.registry.acquire(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service: could not get subject: %w", err)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.subject.Clone(), nil
}

// ListSubjects возвращает субъектов сессии с фильтром по статусу и пагинацией
func (s *subjectService) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]*models.Subject, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	subjects := make([]*models.Subject, 0)
	for _, entry := range s.registry.snapshot() {
		entry.mu.Lock()
		if filter.Status == "" || entry.subject.Status == filter.Status {
			c := entry.subject.Clone()
			c.Trail = nil
			subjects = append(subjects, c)
		}
		entry.mu.Unlock()
	}

	offset := (page - 1) * pageSize
	if offset >= len(subjects) {
		return []*models.Subject{}, nil
	}
	end := min(offset+pageSize, len(subjects))
	return subjects[offset:end], nil
}

// Recompute пересчитывает счёт субъекта на текущий момент без новой точки
func (s *subjectService) Recompute(ctx context.Context, id string) (*models.Subject, error) {
	entry, err := s.registry.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot, _ := s.recompute(entry)
	return snapshot, nil
}

// Sweep пересчитывает всех субъектов с известным местоположением.
// Именно здесь устаревшие устройства получают штраф за молчание.
func (s *subjectService) Sweep(ctx context.Context) int {
	changed := 0
	for _, entry := range s.registry.snapshot() {
		if ctx.Err() != nil {
			break
		}
		if _, ok := s.recompute(entry); ok {
			changed++
		}
	}
	if changed > 0 {
		s.logger.WithFields(logrus.Fields{
			"service": "subject",
			"method":  "Sweep",
			"changed": changed,
		}).Info("Score sweep completed")
	}
	return changed
}

// StartSweeper периодически вызывает Sweep до отмены контекста
func StartSweeper(ctx context.Context, svc SubjectService, interval time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		return
	}
	logger.WithField("interval", interval).Info("Starting score sweeper...")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping score sweeper.")
				return
			case <-ticker.C:
				svc.Sweep(ctx)
			}
		}
	}()
}

// Stats считает агрегаты по субъектам сессии
func (s *subjectService) Stats(ctx context.Context) (*models.SubjectStats, error) {
	now := s.now()
	stats := &models.SubjectStats{}
	total := 0
	for _, entry := range s.registry.snapshot() {
		entry.mu.Lock()
		subject := entry.subject
		stats.TotalSubjects++
		total += subject.SafetyScore
		if subject.Location != nil && now.Sub(subject.Location.Timestamp) <= s.cfg.LocationFreshness {
			stats.ActiveSubjects++
		}
		if subject.Status == models.StatusEmergency {
			stats.EmergencySubjects++
		}
		entry.mu.Unlock()
	}
	if stats.TotalSubjects > 0 {
		stats.AverageSafetyScore = math.Round(float64(total)/float64(stats.TotalSubjects)*10) / 10
	}
	return stats, nil
}

// Restore загружает всех сохранённых субъектов в арену при старте
func (s *subjectService) Restore(ctx context.Context) (int, error) {
	const pageSize = 500
	restored := 0
	for page := 1; ; page++ {
		subjects, err := s.repo.ListSubjects(ctx, models.SubjectFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return restored, fmt.Errorf("service: could not restore subjects: %w", err)
		}
		for _, subject := range subjects {
			if _, created := s.registry.adopt(subject); created {
				restored++
			}
		}
		if len(subjects) < pageSize {
			return restored, nil
		}
	}
}

// recompute возвращает снимок и признак изменения счёта или статуса
func (s *subjectService) recompute(entry *subjectEntry) (*models.Subject, bool) {
	now := s.now().UTC()

	entry.mu.Lock()
	subject := entry.subject
	if subject.Location == nil {
		snapshot := subject.Clone()
		entry.mu.Unlock()
		return snapshot, false
	}

	prevStatus, prevScore := subject.Status, subject.SafetyScore
	score := s.engine.Compute(prevScore, subject.Trail, subject.Tier, now)
	subject.SafetyScore = score
	subject.Status = entry.statusFor(score)

	changed := score != prevScore || subject.Status != prevStatus
	if changed {
		subject.UpdatedAt = now
		if subject.Status != prevStatus {
			ev := entry.event(models.EventStatusChange, s.statusPriority(entry), now)
			ev.PrevStatus = prevStatus
			s.hub.Publish(ev)
		} else {
			s.hub.Publish(entry.event(models.EventPosition, models.EventLow, now))
		}
	}
	snapshot := subject.Clone()
	if changed {
		s.persistSubject(snapshot, nil)
	}
	entry.mu.Unlock()

	return snapshot, changed
}

func (s *subjectService) statusPriority(entry *subjectEntry) models.EventPriority {
	if entry.emergency.State == models.EmergencyActive {
		return models.EventCritical
	}
	return models.EventNormal
}

// persistSubject вызывается под entry.mu: Submit не блокируется, а очередь сохраняет порядок изменений
func (s *subjectService) persistSubject(snapshot *models.Subject, update *models.LocationUpdate) {
	s.persister.Submit("save_subject", snapshot.ID, func(ctx context.Context) error {
		if err := s.repo.SaveSubject(ctx, snapshot); err != nil {
			return err
		}
		if update != nil {
			return s.repo.SaveLocationUpdate(ctx, update)
		}
		return nil
	})
}

func (s *subjectService) validateLocation(loc models.Location, now time.Time) error {
	if !geo.ValidPoint(loc.Point()) {
		return &models.ValidationError{Field: "location", Reason: "coordinates out of range"}
	}
	if math.IsNaN(loc.AccuracyMeters) || loc.AccuracyMeters <= 0 {
		return &models.ValidationError{Field: "accuracy_meters", Reason: "must be positive"}
	}
	if loc.Timestamp.IsZero() {
		return &models.ValidationError{Field: "timestamp", Reason: "is required"}
	}
	if s.cfg.IngestMaxClockSkew > 0 && loc.Timestamp.After(now.Add(s.cfg.IngestMaxClockSkew)) {
		return &models.ValidationError{Field: "timestamp", Reason: "is in the future"}
	}
	return nil
}

func validateSubjectID(id string) error {
	if id == "" {
		return &models.ValidationError{Field: "id", Reason: "subject id is required"}
	}
	if len(id) > maxSubjectIDLength {
		return &models.ValidationError{Field: "id", Reason: "subject id is too long"}
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
