package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// ErrSubscriptionClosed возвращается Next после закрытия подписки
var ErrSubscriptionClosed = errors.New("subscription closed")

// Subscription - очередь событий одного оператора
type Subscription struct {
	id       uuid.UUID
	hub      *Hub
	filter   Filter
	capacity int
	// hardLimit > 0 ограничивает очередь и для критических событий
	hardLimit int

	mu       sync.Mutex
	queue    []models.Event
	degraded bool
	closed   bool
	dropped  uint64
	notify   chan struct{}
}

func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Dropped - сколько событий было вытеснено из очереди
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Next блокируется до следующего события. Если с прошлого вызова события
// вытеснялись, один раз возвращает models.ErrDeliveryDegraded.
func (s *Subscription) Next(ctx context.Context) (models.Event, error) {
	for {
		s.mu.Lock()
		if s.degraded {
			s.degraded = false
			s.mu.Unlock()
			return models.Event{}, models.ErrDeliveryDegraded
		}
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue[0] = models.Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		if s.closed {
			s.mu.Unlock()
			return models.Event{}, ErrSubscriptionClosed
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.Event{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Close отключает подписчика от хаба. Пропущенные после этого события не воспроизводятся.
func (s *Subscription) Close() {
	s.hub.remove(s.id)
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) enqueue(ev models.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	switch {
	case len(s.queue) < s.capacity:
		s.queue = append(s.queue, ev)
	default:
		if idx := s.victim(ev.Priority); idx >= 0 {
			s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
			s.queue = append(s.queue, ev)
			s.markDropped()
		} else if ev.Priority == models.EventCritical && (s.hardLimit == 0 || len(s.queue) < s.hardLimit) {
			// критические события превышают ёмкость, но не теряются
			s.queue = append(s.queue, ev)
		} else {
			s.markDropped()
		}
	}
	s.mu.Unlock()
	s.signal()
}

// victim ищет самое старое событие наименьшего приоритета, не выше приоритета входящего.
// Критические события кандидатами не бывают.
func (s *Subscription) victim(incoming models.EventPriority) int {
	for level := models.EventLow; level <= incoming && level < models.EventCritical; level++ {
		for i, queued := range s.queue {
			if queued.Priority == level {
				return i
			}
		}
	}
	return -1
}

func (s *Subscription) markDropped() {
	s.degraded = true
	s.dropped++
	s.hub.logger.WithField("subscription_id", s.id).Warn("Subscriber queue overflow, resync required")
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
