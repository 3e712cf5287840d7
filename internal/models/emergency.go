package models

import (
	"time"

	"github.com/google/uuid"
)

// EmergencyState - состояние тревожной кнопки
type EmergencyState string

const (
	EmergencyIdle      EmergencyState = "idle"
	EmergencyCountdown EmergencyState = "countdown"
	EmergencyActive    EmergencyState = "active"
	EmergencyResolved  EmergencyState = "resolved"
)

// EmergencyCase - жизненный цикл тревоги одного субъекта
type EmergencyCase struct {
	SubjectID   string         `json:"subject_id"`
	State       EmergencyState `json:"state"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	ActivatedAt *time.Time     `json:"activated_at,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy  string         `json:"resolved_by,omitempty"`
	IncidentID  *uuid.UUID     `json:"incident_id,omitempty"`
}
