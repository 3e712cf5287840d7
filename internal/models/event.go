package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType - тип события для подписчиков-операторов
type EventType string

const (
	EventPosition        EventType = "position"
	EventStatusChange    EventType = "status_change"
	EventIncidentOpened  EventType = "incident_opened"
	EventIncidentUpdated EventType = "incident_updated"
)

// EventPriority определяет порядок вытеснения из очереди подписчика
type EventPriority int

const (
	EventLow EventPriority = iota
	EventNormal
	EventCritical
)

// Event - изменение состояния субъекта или инцидента
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Priority   EventPriority  `json:"priority"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Seq        uint64         `json:"seq"`
	ZoneIDs    []string       `json:"zone_ids,omitempty"`
	Status     Status         `json:"status,omitempty"`
	PrevStatus Status         `json:"prev_status,omitempty"`
	Tier       Tier           `json:"tier,omitempty"`
	Score      int            `json:"score"`
	Location   *Location      `json:"location,omitempty"`
	Incident   *Incident      `json:"incident,omitempty"`
	Emergency  EmergencyState `json:"emergency,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// IsIncident сообщает, относится ли событие к реестру инцидентов
func (e Event) IsIncident() bool {
	return e.Type == EventIncidentOpened || e.Type == EventIncidentUpdated
}
