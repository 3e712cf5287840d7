package v1

import (
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
)

// DTOToProfile преобразует запрос регистрации в профиль субъекта
func DTOToProfile(dto RegisterSubjectRequest) models.Profile {
	return models.Profile{
		Name:             dto.Name,
		Nationality:      dto.Nationality,
		DigitalID:        dto.DigitalID,
		EmergencyContact: dto.EmergencyContact,
	}
}

// DTOToLocation преобразует запрос приёма точки в доменную модель
func DTOToLocation(dto LocationRequest) models.Location {
	return models.Location{
		Latitude:       *dto.Latitude,
		Longitude:      *dto.Longitude,
		AccuracyMeters: dto.AccuracyMeters,
		Timestamp:      dto.Timestamp,
	}
}

// DTOToIncidentModel преобразует DTO создания в доменную модель
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	return &models.Incident{
		SubjectID:   dto.SubjectID,
		Type:        models.IncidentType(dto.Type),
		Description: dto.Description,
		Latitude:    *dto.Latitude,
		Longitude:   *dto.Longitude,
		Priority:    models.Priority(dto.Priority),
	}
}

// DTOToIncidentUpdate преобразует DTO обновления в набор изменений
func DTOToIncidentUpdate(dto UpdateIncidentRequest) models.IncidentUpdate {
	var update models.IncidentUpdate
	if dto.Status != nil {
		status := models.IncidentStatus(*dto.Status)
		update.Status = &status
	}
	if dto.Priority != nil {
		priority := models.Priority(*dto.Priority)
		update.Priority = &priority
	}
	update.AssignedTo = dto.AssignedTo
	return update
}

// ModelToSubjectResponse преобразует субъекта в DTO для ответа
func ModelToSubjectResponse(model *models.Subject) *SubjectResponse {
	resp := &SubjectResponse{
		ID:               model.ID,
		Name:             model.Profile.Name,
		Nationality:      model.Profile.Nationality,
		DigitalID:        model.Profile.DigitalID,
		EmergencyContact: model.Profile.EmergencyContact,
		Tier:             string(model.Tier),
		ZoneIDs:          model.ZoneIDs,
		SafetyScore:      model.SafetyScore,
		Status:           string(model.Status),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if resp.ZoneIDs == nil {
		resp.ZoneIDs = []string{}
	}
	if loc := model.Location; loc != nil {
		resp.Location = &LocationResponse{
			Latitude:       loc.Latitude,
			Longitude:      loc.Longitude,
			AccuracyMeters: loc.AccuracyMeters,
			Timestamp:      loc.Timestamp,
		}
	}
	return resp
}

// ModelsToSubjectResponses преобразует слайс субъектов в слайс DTO
func ModelsToSubjectResponses(subjects []*models.Subject) []*SubjectResponse {
	responses := make([]*SubjectResponse, len(subjects))
	for i, subject := range subjects {
		responses[i] = ModelToSubjectResponse(subject)
	}
	return responses
}

// IngestResultToResponse преобразует итог приёма точки в DTO
func IngestResultToResponse(result *service.IngestResult) *IngestResponse {
	return &IngestResponse{
		Subject:    ModelToSubjectResponse(result.Subject),
		Tier:       string(result.Tier),
		ScoreDelta: result.ScoreDelta,
		Degraded:   result.Degraded,
	}
}

// ModelToEmergencyResponse преобразует тревожный случай в DTO
func ModelToEmergencyResponse(model *models.EmergencyCase) *EmergencyResponse {
	return &EmergencyResponse{
		SubjectID:   model.SubjectID,
		State:       string(model.State),
		Deadline:    model.Deadline,
		ActivatedAt: model.ActivatedAt,
		ResolvedAt:  model.ResolvedAt,
		ResolvedBy:  model.ResolvedBy,
		IncidentID:  model.IncidentID,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		SubjectID:   model.SubjectID,
		Type:        string(model.Type),
		Description: model.Description,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Status:      string(model.Status),
		Priority:    string(model.Priority),
		AssignedTo:  model.AssignedTo,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// MatchesToLocateResponse преобразует результат поиска зон в DTO
func MatchesToLocateResponse(matches []geo.Match) *LocateResponse {
	resp := &LocateResponse{
		Tier:  string(models.TierSafe),
		Zones: make([]ZoneMatchResponse, 0, len(matches)),
	}
	if len(matches) > 0 {
		resp.Tier = string(matches[0].Tier)
	}
	for _, m := range matches {
		resp.Zones = append(resp.Zones, ZoneMatchResponse{ID: m.Zone.ID, Name: m.Zone.Name, Tier: string(m.Tier)})
	}
	return resp
}
