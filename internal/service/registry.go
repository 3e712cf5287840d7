package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// subjectEntry - изменяемое состояние одного субъекта.
// Все поля меняются только под mu, две записи никогда не блокируются одновременно.
type subjectEntry struct {
	mu           sync.Mutex
	subject      *models.Subject
	lastAccepted time.Time
	seq          uint64

	emergency models.EmergencyCase
	caseSeq   uint64
	timer     *time.Timer
	// recorded закрывается, когда инцидент активной тревоги сохранён в реестре
	recorded chan struct{}
}

// event собирает событие о текущем состоянии субъекта со следующим порядковым номером
func (e *subjectEntry) event(eventType models.EventType, priority models.EventPriority, now time.Time) models.Event {
	e.seq++
	s := e.subject
	ev := models.Event{
		ID:         uuid.New(),
		Type:       eventType,
		Priority:   priority,
		SubjectID:  s.ID,
		Seq:        e.seq,
		ZoneIDs:    s.ZoneIDs,
		Status:     s.Status,
		Tier:       s.Tier,
		Score:      s.SafetyScore,
		Emergency:  e.emergency.State,
		OccurredAt: now,
	}
	if s.Location != nil {
		loc := *s.Location
		ev.Location = &loc
	}
	return ev
}

// caseSnapshot возвращает копию тревожного случая
func (e *subjectEntry) caseSnapshot() *models.EmergencyCase {
	c := e.emergency
	return &c
}

// statusFor - статус по счёту, но активная тревога всегда даёт emergency
func (e *subjectEntry) statusFor(score int) models.Status {
	if e.emergency.State == models.EmergencyActive {
		return models.StatusEmergency
	}
	return models.StatusFromScore(score)
}

// appendTrail добавляет точку и вытесняет самые старые по количеству и возрасту
func (e *subjectEntry) appendTrail(p models.TrailPoint, maxSamples int, maxAge time.Duration) {
	trail := append(e.subject.Trail, p)
	if maxAge > 0 {
		cutoff := p.Location.Timestamp.Add(-maxAge)
		drop := 0
		for drop < len(trail)-1 && trail[drop].Location.Timestamp.Before(cutoff) {
			drop++
		}
		trail = trail[drop:]
	}
	if maxSamples > 0 && len(trail) > maxSamples {
		trail = trail[len(trail)-maxSamples:]
	}
	e.subject.Trail = append([]models.TrailPoint(nil), trail...)
}

// Registry - арена записей субъектов с отдельной блокировкой на каждую запись.
// Общая блокировка защищает только карту и не удерживается во время работы с хранилищем.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*subjectEntry
	repo    SubjectRepository
}

func NewRegistry(repo SubjectRepository) *Registry {
	return &Registry{
		entries: make(map[string]*subjectEntry),
		repo:    repo,
	}
}

// acquire возвращает запись субъекта, при промахе подгружая её из хранилища
func (r *Registry) acquire(ctx context.Context, id string) (*subjectEntry, error) {
	if e, ok := r.get(id); ok {
		return e, nil
	}
	subject, err := r.repo.GetSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, _ := r.adopt(subject)
	return entry, nil
}

func (r *Registry) get(id string) (*subjectEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// adopt кладёт субъекта в арену, если его там ещё нет. Второй результат - была ли запись создана.
func (r *Registry) adopt(subject *models.Subject) (*subjectEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[subject.ID]; ok {
		return e, false
	}
	e := &subjectEntry{
		subject:   subject,
		emergency: models.EmergencyCase{SubjectID: subject.ID, State: models.EmergencyIdle},
	}
	if subject.Location != nil {
		e.lastAccepted = subject.Location.Timestamp
	}
	r.entries[subject.ID] = e
	return e, true
}

// snapshot возвращает записи, отсортированные по идентификатору субъекта
func (r *Registry) snapshot() []*subjectEntry {
	r.mu.RLock()
	entries := make([]*subjectEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].subject.ID < entries[j].subject.ID
	})
	return entries
}

// Len - число субъектов в арене
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
