package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Health-check доступен без ключа
	api.GET("/system/health", h.healthCheck)

	secured := api.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))

	subjects := secured.Group("/subjects")
	{
		subjects.POST("", h.registerSubject)
		subjects.GET("", h.listSubjects)
		subjects.GET("/:id", h.getSubject)
		subjects.POST("/:id/locations", h.ingestLocation)
		subjects.POST("/:id/recompute", h.recomputeSubject)

		// Тревожная кнопка
		subjects.POST("/:id/panic", h.triggerPanic)
		subjects.GET("/:id/panic", h.getPanic)
		subjects.POST("/:id/panic/cancel", h.cancelPanic)
		subjects.POST("/:id/panic/activate", h.activatePanic)
		subjects.POST("/:id/panic/resolve", h.resolvePanic)
	}

	incidents := secured.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id", h.updateIncident)
	}

	zones := secured.Group("/zones")
	{
		zones.PUT("", h.loadZones)
		zones.GET("", h.listZones)
		zones.GET("/locate", h.locateZones)
	}

	secured.GET("/stream", h.stream)
	secured.GET("/stats", h.getStats)
}
