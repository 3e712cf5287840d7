package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/webhook"
	"github.com/sirupsen/logrus"
)

// EmergencyService определяет контракт тревожной кнопки субъекта
type EmergencyService interface {
	Trigger(ctx context.Context, subjectID string) (*models.EmergencyCase, error)
	Cancel(ctx context.Context, subjectID string) (*models.EmergencyCase, error)
	Activate(ctx context.Context, subjectID string) (*models.EmergencyCase, error)
	Resolve(ctx context.Context, subjectID, operatorID string) (*models.EmergencyCase, error)
	State(ctx context.Context, subjectID string) (*models.EmergencyCase, error)
	Stop()
}

// activation - то, что нужно сделать после снятия блокировки субъекта
type activation struct {
	incident *models.Incident
	subject  *models.Subject
	recorded chan struct{}
}

type emergencyService struct {
	registry  *Registry
	subjects  SubjectRepository
	incidents IncidentService
	hub       *hub.Hub
	alerts    webhook.WebhookPublisher
	persister *Persister
	logger    *logrus.Logger
	cfg       *config.Config
	now       func() time.Time

	// ctx фоновых операций, запущенных таймером
	ctx     context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

func NewEmergencyService(
	registry *Registry,
	subjects SubjectRepository,
	incidents IncidentService,
	eventHub *hub.Hub,
	alerts webhook.WebhookPublisher,
	persister *Persister,
	logger *logrus.Logger,
	cfg *config.Config,
) EmergencyService {
	ctx, cancel := context.WithCancel(context.Background())
	return &emergencyService{
		registry:  registry,
		subjects:  subjects,
		incidents: incidents,
		hub:       eventHub,
		alerts:    alerts,
		persister: persister,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Trigger запускает обратный отсчёт. Повторный вызов во время отсчёта или активной тревоги ничего не меняет.
func (s *emergencyService) Trigger(ctx context.Context, subjectID string) (*models.EmergencyCase, error) {
	log := s.log("Trigger", subjectID)
	entry, err := s.registry.acquire(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	switch entry.emergency.State {
	case models.EmergencyCountdown, models.EmergencyActive:
		log.WithField("state", entry.emergency.State).Debug("Panic already in progress, trigger ignored")
		return entry.caseSnapshot(), nil
	}

	now := s.now().UTC()
	deadline := now.Add(s.cfg.PanicGracePeriod)
	entry.caseSeq++
	entry.emergency = models.EmergencyCase{
		SubjectID: subjectID,
		State:     models.EmergencyCountdown,
		Deadline:  &deadline,
	}
	seq := entry.caseSeq
	entry.timer = time.AfterFunc(s.cfg.PanicGracePeriod, func() {
		s.expire(subjectID, seq)
	})

	log.WithField("deadline", deadline).Info("Panic countdown started")
	return entry.caseSnapshot(), nil
}

// Cancel возвращает отсчёт в idle. Допустим только из countdown.
func (s *emergencyService) Cancel(ctx context.Context, subjectID string) (*models.EmergencyCase, error) {
	entry, err := s.registry.acquire(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.emergency.State != models.EmergencyCountdown {
		return nil, &models.InvalidTransitionError{From: string(entry.emergency.State), Action: "cancel"}
	}
	// смена caseSeq делает уже сработавший таймер no-op
	entry.caseSeq++
	s.stopTimer(entry)
	entry.emergency = models.EmergencyCase{SubjectID: subjectID, State: models.EmergencyIdle}

	s.log("Cancel", subjectID).Info("Panic countdown cancelled")
	return entry.caseSnapshot(), nil
}

// Activate немедленно активирует тревогу, не дожидаясь конца отсчёта
func (s *emergencyService) Activate(ctx context.Context, subjectID string) (*models.EmergencyCase, error) {
	entry, err := s.registry.acquire(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	switch entry.emergency.State {
	case models.EmergencyActive:
		c := entry.caseSnapshot()
		entry.mu.Unlock()
		return c, nil
	case models.EmergencyCountdown:
	default:
		from := entry.emergency.State
		entry.mu.Unlock()
		return nil, &models.InvalidTransitionError{From: string(from), Action: "activate"}
	}
	act := s.activateLocked(entry)
	c := entry.caseSnapshot()
	entry.mu.Unlock()

	s.afterActivation(ctx, act)
	return c, nil
}

// Resolve закрывает активную тревогу и пересчитывает статус по текущему счёту
func (s *emergencyService) Resolve(ctx context.Context, subjectID, operatorID string) (*models.EmergencyCase, error) {
	log := s.log("Resolve", subjectID).WithField("operator_id", operatorID)
	if operatorID == "" {
		return nil, &models.ValidationError{Field: "operator_id", Reason: "is required"}
	}
	entry, err := s.registry.acquire(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.emergency.State != models.EmergencyActive {
		from := entry.emergency.State
		entry.mu.Unlock()
		return nil, &models.InvalidTransitionError{From: string(from), Action: "resolve"}
	}

	now := s.now().UTC()
	entry.emergency.State = models.EmergencyResolved
	entry.emergency.ResolvedAt = &now
	entry.emergency.ResolvedBy = operatorID

	subject := entry.subject
	prevStatus := subject.Status
	subject.Status = entry.statusFor(subject.SafetyScore)
	if subject.Status != prevStatus {
		subject.UpdatedAt = now
		ev := entry.event(models.EventStatusChange, models.EventNormal, now)
		ev.PrevStatus = prevStatus
		s.hub.Publish(ev)
	}
	c := entry.caseSnapshot()
	snapshot := subject.Clone()
	s.persistSubject(snapshot)
	recorded := entry.recorded
	entry.recorded = nil
	entry.mu.Unlock()

	if c.IncidentID != nil {
		s.acknowledge(ctx, log, *c.IncidentID, operatorID, recorded)
	}

	log.WithField("status", snapshot.Status).Info("Panic resolved")
	return c, nil
}

// State возвращает текущий тревожный случай субъекта
func (s *emergencyService) State(ctx context.Context, subjectID string) (*models.EmergencyCase, error) {
	entry, err := s.registry.acquire(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.caseSnapshot(), nil
}

// Stop останавливает таймеры обратного отсчёта и отменяет фоновые операции активации.
// Случаи в countdown остаются в этом состоянии до перезапуска.
func (s *emergencyService) Stop() {
	s.stopped.Store(true)
	for _, entry := range s.registry.snapshot() {
		entry.mu.Lock()
		s.stopTimer(entry)
		entry.mu.Unlock()
	}
	s.cancel()
}

// expire вызывается таймером. Побеждает первый из {таймер, cancel}: решение принимается под блокировкой записи.
func (s *emergencyService) expire(subjectID string, seq uint64) {
	entry, ok := s.registry.get(subjectID)
	if !ok {
		return
	}

	entry.mu.Lock()
	if s.stopped.Load() || entry.emergency.State != models.EmergencyCountdown || entry.caseSeq != seq {
		entry.mu.Unlock()
		return
	}
	act := s.activateLocked(entry)
	entry.mu.Unlock()

	s.afterActivation(s.ctx, act)
}

// activateLocked переводит случай в active. Вызывается под entry.mu.
func (s *emergencyService) activateLocked(entry *subjectEntry) activation {
	now := s.now().UTC()
	s.stopTimer(entry)
	subject := entry.subject

	incident := &models.Incident{
		ID:          uuid.New(),
		SubjectID:   subject.ID,
		Type:        models.IncidentPanic,
		Description: fmt.Sprintf("Panic button activated by %s", subject.Profile.Name),
		Status:      models.IncidentOpen,
		Priority:    models.PriorityHigh,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if subject.Location != nil {
		incident.Latitude = subject.Location.Latitude
		incident.Longitude = subject.Location.Longitude
	}

	entry.emergency.State = models.EmergencyActive
	entry.emergency.Deadline = nil
	entry.emergency.ActivatedAt = &now
	entry.emergency.IncidentID = &incident.ID

	prevStatus := subject.Status
	subject.Status = models.StatusEmergency
	subject.UpdatedAt = now
	if prevStatus != subject.Status {
		ev := entry.event(models.EventStatusChange, models.EventCritical, now)
		ev.PrevStatus = prevStatus
		s.hub.Publish(ev)
	}
	opened := entry.event(models.EventIncidentOpened, models.EventCritical, now)
	opened.Incident = incident
	s.hub.Publish(opened)

	snapshot := subject.Clone()
	s.persistSubject(snapshot)
	// Resolve ждёт этот сигнал, прежде чем подтверждать инцидент
	entry.recorded = make(chan struct{})

	s.log("activate", subject.ID).WithField("incident_id", incident.ID).Warn("Panic activated")
	return activation{incident: incident, subject: snapshot, recorded: entry.recorded}
}

// afterActivation сохраняет инцидент и ставит оповещение в очередь. Выполняется без блокировки субъекта.
func (s *emergencyService) afterActivation(ctx context.Context, act activation) {
	log := s.log("afterActivation", act.subject.ID).WithField("incident_id", act.incident.ID)

	err := s.incidents.RecordPanic(ctx, act.incident)
	close(act.recorded)
	if err != nil {
		log.WithError(err).Error("Failed to record panic incident")
	}

	alert := webhook.WebhookEvent{
		SubjectID:        act.subject.ID,
		SubjectName:      act.subject.Profile.Name,
		EmergencyContact: act.subject.Profile.EmergencyContact,
		IncidentID:       act.incident.ID,
		Latitude:         act.incident.Latitude,
		Longitude:        act.incident.Longitude,
		SafetyScore:      act.subject.SafetyScore,
		ActivatedAt:      act.incident.CreatedAt,
	}
	if err := s.alerts.Publish(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to publish emergency alert")
	}
}

// acknowledge переводит инцидент тревоги в работу. Если инцидент ещё записывается, сначала дожидается записи.
func (s *emergencyService) acknowledge(ctx context.Context, log *logrus.Entry, incidentID uuid.UUID, operatorID string, recorded <-chan struct{}) {
	if recorded != nil {
		select {
		case <-recorded:
		case <-ctx.Done():
			log.WithError(ctx.Err()).Error("Panic incident was not recorded in time, acknowledge skipped")
			return
		}
	}
	if _, err := s.incidents.Acknowledge(ctx, incidentID, operatorID); err != nil {
		log.WithError(err).Error("Failed to acknowledge panic incident")
	}
}

func (s *emergencyService) stopTimer(entry *subjectEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
}

// persistSubject вызывается под entry.mu, чтобы порядок записей совпадал с порядком изменений
func (s *emergencyService) persistSubject(snapshot *models.Subject) {
	s.persister.Submit("save_subject", snapshot.ID, func(ctx context.Context) error {
		return s.subjects.SaveSubject(ctx, snapshot)
	})
}

func (s *emergencyService) log(method, subjectID string) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"service":    "emergency",
		"method":     method,
		"subject_id": subjectID,
	})
}
