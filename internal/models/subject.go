package models

import (
	"time"
)

// Status - статус безопасности субъекта
type Status string

const (
	StatusSafe      Status = "safe"
	StatusWarning   Status = "warning"
	StatusEmergency Status = "emergency"
)

// Пороги перевода счёта в статус
const (
	SafeScoreThreshold    = 70
	WarningScoreThreshold = 40
	MinSafetyScore        = 0
	MaxSafetyScore        = 100
)

// StatusFromScore переводит счёт безопасности в статус по фиксированным порогам
func StatusFromScore(score int) Status {
	switch {
	case score >= SafeScoreThreshold:
		return StatusSafe
	case score >= WarningScoreThreshold:
		return StatusWarning
	default:
		return StatusEmergency
	}
}

// Valid проверяет, что статус входит в допустимый набор
func (s Status) Valid() bool {
	switch s {
	case StatusSafe, StatusWarning, StatusEmergency:
		return true
	}
	return false
}

// Location - одна точка местоположения, присланная устройством субъекта
type Location struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

// Point возвращает координаты местоположения
func (l Location) Point() Point {
	return Point{Lat: l.Latitude, Lng: l.Longitude}
}

// TrailPoint - элемент истории перемещений вместе с уровнем риска зоны на момент приёма
type TrailPoint struct {
	Location Location `json:"location"`
	Tier     Tier     `json:"tier"`
}

// Profile - метаданные субъекта, ядро их не интерпретирует
type Profile struct {
	Name             string `json:"name"`
	Nationality      string `json:"nationality,omitempty"`
	DigitalID        string `json:"digital_id,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// Subject представляет отслеживаемого пользователя
type Subject struct {
	ID          string       `json:"id"`
	Profile     Profile      `json:"profile"`
	Location    *Location    `json:"location,omitempty"`
	Tier        Tier         `json:"tier"`
	ZoneIDs     []string     `json:"zone_ids,omitempty"`
	SafetyScore int          `json:"safety_score"`
	Status      Status       `json:"status"`
	Trail       []TrailPoint `json:"trail,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Clone возвращает глубокую копию субъекта, безопасную для передачи за пределы блокировки
func (s *Subject) Clone() *Subject {
	if s == nil {
		return nil
	}
	c := *s
	if s.Location != nil {
		loc := *s.Location
		c.Location = &loc
	}
	c.ZoneIDs = append([]string(nil), s.ZoneIDs...)
	c.Trail = append([]TrailPoint(nil), s.Trail...)
	return &c
}

// LocationUpdate - запись истории местоположений для хранилища
type LocationUpdate struct {
	ID          int64     `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Location    Location  `json:"location"`
	Tier        Tier      `json:"tier"`
	SafetyScore int       `json:"safety_score"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// SubjectFilter - параметры выборки субъектов
type SubjectFilter struct {
	Status   Status
	Page     int
	PageSize int
}

// SubjectStats - агрегаты по субъектам для панели оператора
type SubjectStats struct {
	TotalSubjects      int     `json:"total_subjects"`
	ActiveSubjects     int     `json:"active_subjects"`
	EmergencySubjects  int     `json:"emergency_subjects"`
	AverageSafetyScore float64 `json:"average_safety_score"`
}
