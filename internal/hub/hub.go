// Package hub рассылает изменения состояния субъектов и инцидентов подписчикам-операторам.
//
// У каждого подписчика своя ограниченная очередь, публикация никогда не ждёт медленного
// подписчика. При переполнении вытесняются самые старые события с наименьшим приоритетом,
// критические события не вытесняются никогда. Подписчик, потерявший события,
// получает models.ErrDeliveryDegraded и должен перечитать полное состояние.
package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultQueueSize = 256

type Hub struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]*Subscription
	queueSize int
	logger    *logrus.Logger
	published atomic.Uint64
}

// Stats - состояние хаба для health-check
type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
}

func New(queueSize int, logger *logrus.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		subs:      make(map[uuid.UUID]*Subscription),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Subscribe открывает живой поток событий, подходящих под фильтр.
// События, опубликованные до подписки, не воспроизводятся.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	return h.subscribe(filter, 0)
}

// SubscribeBounded - подписка для машинных потребителей (зеркало в Kafka).
// Очередь никогда не превышает hardLimit: сверх него теряются и критические события.
func (h *Hub) SubscribeBounded(filter Filter, hardLimit int) *Subscription {
	if hardLimit > 0 && hardLimit < h.queueSize {
		hardLimit = h.queueSize
	}
	return h.subscribe(filter, hardLimit)
}

func (h *Hub) subscribe(filter Filter, hardLimit int) *Subscription {
	sub := &Subscription{
		id:        uuid.New(),
		hub:       h,
		filter:    filter,
		capacity:  h.queueSize,
		hardLimit: hardLimit,
		notify:    make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	h.logger.WithField("subscription_id", sub.id).Debug("Subscriber attached")
	return sub
}

// Publish доставляет событие всем подходящим подписчикам и возвращает их число.
// События одного субъекта должны публиковаться последовательно, тогда каждый
// подписчик получает их в порядке публикации.
func (h *Hub) Publish(ev models.Event) int {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ev = cloneEvent(ev)
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if !sub.filter.Match(ev) {
			continue
		}
		sub.enqueue(ev)
		delivered++
	}
	return delivered
}

// Stats возвращает число подписчиков и опубликованных событий
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Subscribers: len(h.subs),
		Published:   h.published.Load(),
	}
}

// Close закрывает все подписки
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uuid.UUID]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// cloneEvent отвязывает событие от структур издателя, все подписчики делят одну неизменяемую копию
func cloneEvent(ev models.Event) models.Event {
	ev.ZoneIDs = append([]string(nil), ev.ZoneIDs...)
	if ev.Location != nil {
		loc := *ev.Location
		ev.Location = &loc
	}
	if ev.Incident != nil {
		inc := *ev.Incident
		if inc.AssignedTo != nil {
			assigned := *inc.AssignedTo
			inc.AssignedTo = &assigned
		}
		ev.Incident = &inc
	}
	return ev
}
