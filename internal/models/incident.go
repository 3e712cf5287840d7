package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentType - тип инцидента
type IncidentType string

const (
	IncidentPanic        IncidentType = "panic"
	IncidentMissing      IncidentType = "missing"
	IncidentMedical      IncidentType = "medical"
	IncidentCrime        IncidentType = "crime"
	IncidentManualReport IncidentType = "manual_report"
)

// IncidentStatus - статус обработки инцидента
type IncidentStatus string

const (
	IncidentOpen          IncidentStatus = "open"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentResolved      IncidentStatus = "resolved"
)

// Priority - приоритет инцидента
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Incident struct {
	ID          uuid.UUID      `json:"id"`
	SubjectID   string         `json:"subject_id"`
	Type        IncidentType   `json:"type"`
	Description string         `json:"description"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Status      IncidentStatus `json:"status"`
	Priority    Priority       `json:"priority"`
	AssignedTo  *string        `json:"assigned_to,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IncidentFilter - параметры выборки инцидентов
type IncidentFilter struct {
	Status    IncidentStatus
	Priority  Priority
	Type      IncidentType
	SubjectID string
	Page      int
	PageSize  int
}

// IncidentUpdate - изменения, которые оператор может внести в инцидент
type IncidentUpdate struct {
	Status     *IncidentStatus
	Priority   *Priority
	AssignedTo *string
}

// IncidentStats - агрегаты по инцидентам для панели оператора
type IncidentStats struct {
	Open          int `json:"open"`
	Investigating int `json:"investigating"`
	Resolved      int `json:"resolved"`
}
