package hub

import (
	"testing"

	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Match(t *testing.T) {
	statusEv := models.Event{Type: models.EventStatusChange, Priority: models.EventNormal, SubjectID: "s1", ZoneIDs: []string{"old-town"}, Status: models.StatusWarning}
	incidentEv := models.Event{Type: models.EventIncidentOpened, Priority: models.EventCritical, SubjectID: "s2"}
	openEv := models.Event{Type: models.EventIncidentOpened, Priority: models.EventCritical, SubjectID: "s2",
		Incident: &models.Incident{Status: models.IncidentOpen}}
	resolvedEv := models.Event{Type: models.EventIncidentUpdated, Priority: models.EventNormal, SubjectID: "s2",
		Incident: &models.Incident{Status: models.IncidentResolved}}
	openOnly := Filter{IncidentsOnly: true, IncidentStatuses: []models.IncidentStatus{models.IncidentOpen, models.IncidentInvestigating}}

	tests := []struct {
		name   string
		filter Filter
		ev     models.Event
		want   bool
	}{
		{"empty filter", Filter{}, statusEv, true},
		{"subject match", Filter{SubjectIDs: []string{"s1"}}, statusEv, true},
		{"subject mismatch", Filter{SubjectIDs: []string{"s3"}}, statusEv, false},
		{"zone match", Filter{ZoneID: "old-town"}, statusEv, true},
		{"zone mismatch", Filter{ZoneID: "riverside"}, statusEv, false},
		{"status match", Filter{Statuses: []models.Status{models.StatusWarning, models.StatusEmergency}}, statusEv, true},
		{"status mismatch", Filter{Statuses: []models.Status{models.StatusEmergency}}, statusEv, false},
		{"status filter ignores incidents", Filter{Statuses: []models.Status{models.StatusEmergency}}, incidentEv, true},
		{"incidents only rejects status", Filter{IncidentsOnly: true}, statusEv, false},
		{"incidents only accepts incident", Filter{IncidentsOnly: true}, incidentEv, true},
		{"min priority", Filter{MinPriority: models.EventCritical}, statusEv, false},
		{"open incidents feed accepts open", openOnly, openEv, true},
		{"open incidents feed rejects resolved", openOnly, resolvedEv, false},
		{"incident status ignores status events", Filter{IncidentStatuses: []models.IncidentStatus{models.IncidentOpen}}, statusEv, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.ev))
		})
	}
}
