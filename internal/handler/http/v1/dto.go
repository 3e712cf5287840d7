package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// RegisterSubjectRequest DTO для регистрации субъекта
// @Description DTO для регистрации субъекта
type RegisterSubjectRequest struct {
	ID               string `json:"id" validate:"required,max=128"`
	Name             string `json:"name" validate:"required,min=1,max=255"`
	Nationality      string `json:"nationality,omitempty" validate:"max=64"`
	DigitalID        string `json:"digital_id,omitempty" validate:"omitempty,alphanum,max=64"`
	EmergencyContact string `json:"emergency_contact,omitempty" validate:"max=255"`
}

// LocationRequest DTO для приёма точки местоположения
// @Description DTO для приёма точки местоположения
type LocationRequest struct {
	Latitude       *float64  `json:"latitude" validate:"required,latitude"`
	Longitude      *float64  `json:"longitude" validate:"required,longitude"`
	AccuracyMeters float64   `json:"accuracy_meters" validate:"required,gt=0"`
	Timestamp      time.Time `json:"timestamp" validate:"required"`
}

// ResolvePanicRequest DTO для закрытия тревоги оператором
// @Description DTO для закрытия тревоги оператором
type ResolvePanicRequest struct {
	OperatorID string `json:"operator_id" validate:"required,max=128"`
}

// CreateIncidentRequest DTO для создания инцидента из внешнего отчёта
// @Description DTO для создания инцидента из внешнего отчёта
type CreateIncidentRequest struct {
	SubjectID   string   `json:"subject_id" validate:"required,max=128"`
	Type        string   `json:"type" validate:"required,oneof=missing medical crime manual_report"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
	Priority    string   `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
}

// UpdateIncidentRequest DTO для обновления инцидента оператором
// @Description DTO для обновления инцидента оператором
type UpdateIncidentRequest struct {
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=open investigating resolved"`
	Priority   *string `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	AssignedTo *string `json:"assigned_to,omitempty" validate:"omitempty,max=128"`
}

// LocationResponse DTO для местоположения
// @Description DTO для местоположения
type LocationResponse struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

// SubjectResponse DTO для ответа с состоянием субъекта
// @Description DTO для ответа с состоянием субъекта
type SubjectResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Nationality      string            `json:"nationality,omitempty"`
	DigitalID        string            `json:"digital_id,omitempty"`
	EmergencyContact string            `json:"emergency_contact,omitempty"`
	Location         *LocationResponse `json:"location,omitempty"`
	Tier             string            `json:"tier"`
	ZoneIDs          []string          `json:"zone_ids"`
	SafetyScore      int               `json:"safety_score"`
	Status           string            `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IngestResponse DTO для ответа на приём точки
// @Description DTO для ответа на приём точки
type IngestResponse struct {
	Subject    *SubjectResponse `json:"subject"`
	Tier       string           `json:"tier"`
	ScoreDelta int              `json:"score_delta"`
	Degraded   bool             `json:"degraded"`
}

// EmergencyResponse DTO для состояния тревожной кнопки
// @Description DTO для состояния тревожной кнопки
type EmergencyResponse struct {
	SubjectID   string     `json:"subject_id"`
	State       string     `json:"state"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	IncidentID  *uuid.UUID `json:"incident_id,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ZoneMatchResponse DTO для зоны, покрывающей точку
// @Description DTO для зоны, покрывающей точку
type ZoneMatchResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// LocateResponse DTO для ответа на запрос зон в точке
// @Description DTO для ответа на запрос зон в точке
type LocateResponse struct {
	Tier  string              `json:"tier"`
	Zones []ZoneMatchResponse `json:"zones"`
}

// StatsResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	Subjects  models.SubjectStats  `json:"subjects"`
	Incidents models.IncidentStats `json:"incidents"`
}

// HealthResponse DTO для health-check
// @Description DTO для health-check
type HealthResponse struct {
	Status        string `json:"status"`
	CatalogLoaded bool   `json:"catalog_loaded"`
	Subscribers   int    `json:"subscribers"`
}
