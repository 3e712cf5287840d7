package v1

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
	"github.com/sirupsen/logrus"
)

const maxZonesBodyBytes = 8 << 20

type Handler struct {
	subjectService   service.SubjectService
	emergencyService service.EmergencyService
	incidentService  service.IncidentService
	zoneService      service.ZoneService
	hub              *hub.Hub
	logger           *logrus.Logger
	validate         *validator.Validate
	cfg              *config.Config
}

func NewHandler(
	subjectService service.SubjectService,
	emergencyService service.EmergencyService,
	incidentService service.IncidentService,
	zoneService service.ZoneService,
	eventHub *hub.Hub,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		subjectService:   subjectService,
		emergencyService: emergencyService,
		incidentService:  incidentService,
		zoneService:      zoneService,
		hub:              eventHub,
		logger:           logger,
		validate:         validator.New(),
		cfg:              cfg,
	}
}

// respondError переводит доменные ошибки в HTTP-статусы
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	var (
		validationErr *models.ValidationError
		transitionErr *models.InvalidTransitionError
		notFoundErr   *models.NotFoundError
		staleErr      *models.StaleDataError
	)
	switch {
	case errors.As(err, &validationErr):
		log.WithError(err).Warn("Request rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		log.WithError(err).Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr):
		log.WithError(err).Warn("Invalid state transition")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &staleErr):
		log.WithError(err).Warn("Zone catalog is not loaded")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bind разбирает и валидирует JSON тело запроса
func (h *Handler) bind(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary Register a subject
// @Description Register a tracked subject. Repeated registration returns the existing subject. Requires API key.
// @Tags Subjects
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param subject body RegisterSubjectRequest true "Subject registration request"
// @Success 201 {object} SubjectResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /subjects [post]
func (h *Handler) registerSubject(c *gin.Context) {
	var input RegisterSubjectRequest
	log := h.logger.WithField("method", "registerSubject")
	if !h.bind(c, log, &input) {
		return
	}

	subject, err := h.subjectService.Register(c.Request.Context(), input.ID, DTOToProfile(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToSubjectResponse(subject))
}

// @Summary Get a list of subjects
// @Description Get a paginated list of subjects, optionally filtered by status. Requires API key.
// @Tags Subjects
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "safe, warning or emergency"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} SubjectResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /subjects [get]
func (h *Handler) listSubjects(c *gin.Context) {
	log := h.logger.WithField("method", "listSubjects")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	subjects, err := h.subjectService.ListSubjects(c.Request.Context(), models.SubjectFilter{
		Status:   models.Status(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToSubjectResponses(subjects))
}

// @Summary Get subject by ID
// @Description Get the current state of a subject. Requires API key.
// @Tags Subjects
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} SubjectResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subject not found"
// @Router /subjects/{id} [get]
func (h *Handler) getSubject(c *gin.Context) {
	log := h.logger.WithField("method", "getSubject").WithField("subject_id", c.Param("id"))

	subject, err := h.subjectService.GetSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSubjectResponse(subject))
}

// @Summary Ingest a location sample
// @Description Accept a location sample from the subject device and recompute zone, score and status. Requires API key.
// @Tags Subjects
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Param location body LocationRequest true "Location sample"
// @Success 200 {object} IngestResponse
// @Failure 400 {object} map[string]string "Invalid or out-of-order sample"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Subject not found"
// @Router /subjects/{id}/locations [post]
func (h *Handler) ingestLocation(c *gin.Context) {
	var input LocationRequest
	log := h.logger.WithField("method", "ingestLocation").WithField("subject_id", c.Param("id"))
	if !h.bind(c, log, &input) {
		return
	}

	result, err := h.subjectService.Ingest(c.Request.Context(), c.Param("id"), DTOToLocation(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, IngestResultToResponse(result))
}

// @Summary Recompute subject score
// @Description Recompute the safety score at the current time without a new sample. Requires API key.
// @Tags Subjects
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} SubjectResponse
// @Failure 404 {object} map[string]string "Subject not found"
// @Router /subjects/{id}/recompute [post]
func (h *Handler) recomputeSubject(c *gin.Context) {
	log := h.logger.WithField("method", "recomputeSubject").WithField("subject_id", c.Param("id"))

	subject, err := h.subjectService.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSubjectResponse(subject))
}

// @Summary Trigger panic
// @Description Start the panic countdown. A trigger during countdown or active emergency is a no-op. Requires API key.
// @Tags Panic
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} EmergencyResponse
// @Failure 404 {object} map[string]string "Subject not found"
// @Router /subjects/{id}/panic [post]
func (h *Handler) triggerPanic(c *gin.Context) {
	log := h.logger.WithField("method", "triggerPanic").WithField("subject_id", c.Param("id"))

	emergency, err := h.emergencyService.Trigger(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Get panic state
// @Description Get the current emergency case of a subject. Requires API key.
// @Tags Panic
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} EmergencyResponse
// @Failure 404 {object} map[string]string "Subject not found"
// @Router /subjects/{id}/panic [get]
func (h *Handler) getPanic(c *gin.Context) {
	log := h.logger.WithField("method", "getPanic").WithField("subject_id", c.Param("id"))

	emergency, err := h.emergencyService.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Cancel panic
// @Description Cancel the panic countdown. Valid only during countdown. Requires API key.
// @Tags Panic
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} EmergencyResponse
// @Failure 404 {object} map[string]string "Subject not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /subjects/{id}/panic/cancel [post]
func (h *Handler) cancelPanic(c *gin.Context) {
	log := h.logger.WithField("method", "cancelPanic").WithField("subject_id", c.Param("id"))

	emergency, err := h.emergencyService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Activate panic immediately
// @Description Skip the remaining countdown and activate the emergency. Requires API key.
// @Tags Panic
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} EmergencyResponse
// @Failure 404 {object} map[string]string "Subject not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /subjects/{id}/panic/activate [post]
func (h *Handler) activatePanic(c *gin.Context) {
	log := h.logger.WithField("method", "activatePanic").WithField("subject_id", c.Param("id"))

	emergency, err := h.emergencyService.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Resolve panic
// @Description Resolve an active emergency. Requires API key.
// @Tags Panic
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Subject ID"
// @Param request body ResolvePanicRequest true "Resolving operator"
// @Success 200 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Subject not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /subjects/{id}/panic/resolve [post]
func (h *Handler) resolvePanic(c *gin.Context) {
	var input ResolvePanicRequest
	log := h.logger.WithField("method", "resolvePanic").WithField("subject_id", c.Param("id"))
	if !h.bind(c, log, &input) {
		return
	}

	emergency, err := h.emergencyService.Resolve(c.Request.Context(), c.Param("id"), input.OperatorID)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Create a new incident
// @Description Create an incident from an external report (missing, medical, crime, manual_report). Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")
	if !h.bind(c, log, &input) {
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateReport(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get a list of incidents
// @Description Get a paginated list of incidents filtered by status, priority, type or subject. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "open, investigating or resolved"
// @Param priority query string false "high, medium or low"
// @Param type query string false "Incident type"
// @Param subject_id query string false "Subject ID"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(10)
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), models.IncidentFilter{
		Status:    models.IncidentStatus(c.Query("status")),
		Priority:  models.Priority(c.Query("priority")),
		Type:      models.IncidentType(c.Query("type")),
		SubjectID: c.Query("subject_id"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Change status, priority or assignment of an incident. Resolved incidents cannot be reopened. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /incidents/{id} [patch]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), id, DTOToIncidentUpdate(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Replace zone catalog
// @Description Replace the whole zone catalog with a GeoJSON FeatureCollection of polygons. Requires API key.
// @Tags Zones
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param zones body object true "GeoJSON FeatureCollection with id, name and tier properties"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid GeoJSON or zone"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /zones [put]
func (h *Handler) loadZones(c *gin.Context) {
	log := h.logger.WithField("method", "loadZones")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxZonesBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	zones, err := geo.ZonesFromFeatureCollection(body)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	if err := h.zoneService.LoadZones(c.Request.Context(), zones); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List zones
// @Description Get the loaded zone catalog as a GeoJSON FeatureCollection. Requires API key.
// @Tags Zones
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} object "GeoJSON FeatureCollection"
// @Failure 503 {object} map[string]string "Zone catalog not loaded"
// @Router /zones [get]
func (h *Handler) listZones(c *gin.Context) {
	log := h.logger.WithField("method", "listZones")

	zones, err := h.zoneService.ListZones(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, geo.ZonesToFeatureCollection(zones))
}

// @Summary Locate zones at a point
// @Description Get the zones covering a point, highest risk first. Requires API key.
// @Tags Zones
// @Produce json
// @Security ApiKeyAuth
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} LocateResponse
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Failure 503 {object} map[string]string "Zone catalog not loaded"
// @Router /zones/locate [get]
func (h *Handler) locateZones(c *gin.Context) {
	log := h.logger.WithField("method", "locateZones")

	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required numbers"})
		return
	}

	matches, err := h.zoneService.Locate(c.Request.Context(), models.Point{Lat: lat, Lng: lng})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, MatchesToLocateResponse(matches))
}

// @Summary Get dashboard statistics
// @Description Get subject and incident counters for the operator dashboard. Requires API key.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	subjects, err := h.subjectService.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	incidents, err := h.incidentService.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Subjects: *subjects, Incidents: incidents})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	_, err := h.zoneService.ListZones(c.Request.Context())
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		CatalogLoaded: err == nil,
		Subscribers:   h.hub.Stats().Subscribers,
	})
}
