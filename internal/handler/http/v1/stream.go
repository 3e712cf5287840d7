package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Сообщения потока оператору
const (
	streamMessageEvent  = "event"
	streamMessageResync = "resync_required"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage - кадр живого потока
type StreamMessage struct {
	Type  string        `json:"type"`
	Event *models.Event `json:"event,omitempty"`
}

// @Summary Live event stream
// @Description Open a websocket stream of subject and incident events. Requires API key.
// @Tags Stream
// @Security ApiKeyAuth
// @Param subject_id query string false "Comma separated subject IDs"
// @Param zone_id query string false "Only events about subjects inside this zone"
// @Param status query string false "Comma separated statuses (safe,warning,emergency)"
// @Param incidents_only query bool false "Only incident events"
// @Param incident_status query string false "Comma separated incident statuses (open,investigating,resolved)"
// @Param min_priority query string false "low, normal or critical"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /stream [get]
func (h *Handler) stream(c *gin.Context) {
	log := h.logger.WithField("method", "stream")

	filter, err := parseStreamFilter(c)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade connection to WebSocket")
		return
	}

	sub := h.hub.Subscribe(filter)
	log = log.WithField("subscription_id", sub.ID())
	log.Info("Operator stream opened")

	ctx, cancel := context.WithCancel(context.Background())
	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, sub, log)
}

// readPump читает только control-кадры. Закрытие соединения отменяет ctx.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump пересылает события подписки в сокет и шлёт ping между событиями
func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscription, log *logrus.Entry) {
	defer func() {
		sub.Close()
		conn.Close()
		log.WithField("dropped", sub.Dropped()).Info("Operator stream closed")
	}()

	for {
		waitCtx, cancel := context.WithTimeout(ctx, pingPeriod)
		ev, err := sub.Next(waitCtx)
		cancel()

		var msg StreamMessage
		switch {
		case err == nil:
			msg = StreamMessage{Type: streamMessageEvent, Event: &ev}
		case errors.Is(err, models.ErrDeliveryDegraded):
			msg = StreamMessage{Type: streamMessageResync}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		default:
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).Debug("Failed to write stream message")
			return
		}
	}
}

func parseStreamFilter(c *gin.Context) (hub.Filter, error) {
	filter := hub.Filter{
		SubjectIDs: splitList(c.Query("subject_id")),
		ZoneID:     c.Query("zone_id"),
	}
	for _, s := range splitList(c.Query("status")) {
		status := models.Status(s)
		if !status.Valid() {
			return hub.Filter{}, &models.ValidationError{Field: "status", Reason: "unknown status " + s}
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.IncidentsOnly = c.Query("incidents_only") == "true"
	for _, s := range splitList(c.Query("incident_status")) {
		status := models.IncidentStatus(s)
		switch status {
		case models.IncidentOpen, models.IncidentInvestigating, models.IncidentResolved:
		default:
			return hub.Filter{}, &models.ValidationError{Field: "incident_status", Reason: "unknown incident status " + s}
		}
		filter.IncidentStatuses = append(filter.IncidentStatuses, status)
	}

	switch c.DefaultQuery("min_priority", "low") {
	case "low":
		filter.MinPriority = models.EventLow
	case "normal":
		filter.MinPriority = models.EventNormal
	case "critical":
		filter.MinPriority = models.EventCritical
	default:
		return hub.Filter{}, &models.ValidationError{Field: "min_priority", Reason: "must be low, normal or critical"}
	}
	return filter, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
