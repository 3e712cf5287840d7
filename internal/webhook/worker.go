package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/sirupsen/logrus"
)

// alertEventType - значение X-Webhook-Event для оповещений об активированной тревоге
const alertEventType = "panic.activated"

// WebhookWorker - структура для обработки и отправки вебхуков
type WebhookWorker struct {
	queue      Queue
	logger     *logrus.Logger
	cfg        *config.Config
	httpClient *http.Client
	done       chan struct{}
}

// NewWebhookWorker создает новый WebhookWorker
func NewWebhookWorker(queue Queue, logger *logrus.Logger, cfg *config.Config) *WebhookWorker {
	return &WebhookWorker{
		queue:  queue,
		logger: logger,
		cfg:    cfg,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
		done: make(chan struct{}),
	}
}

// Start запускает горутину для обработки очереди вебхуков
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("Starting webhook worker...")
	go func() {
		defer close(w.done)
		for {
			payload, err := w.queue.Pop(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					w.logger.Info("Stopping webhook worker.")
					return
				}
				w.logger.WithError(err).Error("Failed to pop webhook event from queue")
				select {
				case <-ctx.Done():
				case <-time.After(w.cfg.WebhookTimeout):
				}
				continue
			}

			var event WebhookEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				w.logger.WithError(err).Error("Failed to unmarshal webhook event")
				continue
			}

			w.processWebhookEvent(ctx, event, payload)
		}
	}()
}

// Done закрывается после остановки воркера
func (w *WebhookWorker) Done() <-chan struct{} {
	return w.done
}

// processWebhookEvent доставляет оповещение с повторами. Диспетчер дедуплицирует по X-Idempotency-Key,
// поэтому повтор после таймаута безопасен.
func (w *WebhookWorker) processWebhookEvent(ctx context.Context, event WebhookEvent, rawPayload string) {
	log := w.logger.WithFields(logrus.Fields{
		"subject_id":  event.SubjectID,
		"incident_id": event.IncidentID,
	})
	log.Debug("Processing emergency alert...")

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping alert delivery.")
		return
	}

	maxAttempts := max(w.cfg.WebhookMaxRetries, 1)
	delay := w.cfg.WebhookBaseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				log.Warn("Alert delivery interrupted by shutdown.")
				return
			case <-time.After(delay):
			}
			delay *= 2
		}

		attemptLog := log.WithField("attempt", attempt)
		status, err := w.send(ctx, event, rawPayload)
		switch {
		case err != nil:
			attemptLog.WithError(err).Warn("Failed to send alert")
		case status >= 200 && status < 300:
			attemptLog.Info("Alert delivered")
			return
		case !retryableStatus(status):
			attemptLog.WithField("status", status).Error("Alert rejected by dispatcher, not retrying")
			return
		default:
			attemptLog.WithField("status", status).Warn("Alert delivery failed")
		}
	}

	log.Errorf("Failed to deliver alert after %d attempts", maxAttempts)
}

// retryableStatus - 5xx и 429 считаются временными, остальные 4xx повторять бессмысленно
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (w *WebhookWorker) send(ctx context.Context, event WebhookEvent, rawPayload string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", alertEventType)
	req.Header.Set("X-Idempotency-Key", event.IncidentID.String())

	// HMAC подпись, если задан WEBHOOK_SECRET
	if w.cfg.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Signature", generateHMACSHA256(rawPayload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// дочитываем тело, чтобы соединение вернулось в пул
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
