package hub

import (
	"slices"

	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// Filter - предикат подписки оператора. Пустой фильтр пропускает все события.
type Filter struct {
	SubjectIDs    []string
	ZoneID        string
	Statuses      []models.Status
	IncidentsOnly bool
	MinPriority   models.EventPriority

	// IncidentStatuses ограничивает события инцидентов их текущим статусом, например лента только открытых
	IncidentStatuses []models.IncidentStatus
}

// Match проверяет, подходит ли событие под фильтр
func (f Filter) Match(ev models.Event) bool {
	if ev.Priority < f.MinPriority {
		return false
	}
	if f.IncidentsOnly && !ev.IsIncident() {
		return false
	}
	if len(f.SubjectIDs) > 0 && !slices.Contains(f.SubjectIDs, ev.SubjectID) {
		return false
	}
	if f.ZoneID != "" && !slices.Contains(ev.ZoneIDs, f.ZoneID) {
		return false
	}
	if len(f.Statuses) > 0 && !ev.IsIncident() && !slices.Contains(f.Statuses, ev.Status) {
		return false
	}
	if len(f.IncidentStatuses) > 0 && ev.IsIncident() {
		if ev.Incident == nil || !slices.Contains(f.IncidentStatuses, ev.Incident.Status) {
			return false
		}
	}
	return true
}
