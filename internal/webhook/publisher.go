package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	webhookQueueKey = "emergency_alerts"
)

// WebhookEvent - тревожное оповещение для диспетчера (SMS, звонок, экстренные службы)
type WebhookEvent struct {
	SubjectID        string    `json:"subject_id"`
	SubjectName      string    `json:"subject_name"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	IncidentID       uuid.UUID `json:"incident_id"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	SafetyScore      int       `json:"safety_score"`
	ActivatedAt      time.Time `json:"activated_at"`
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// Queue - очередь сериализованных оповещений, из которой читает воркер
type Queue interface {
	Pop(ctx context.Context) (string, error)
}

// RedisWebhookPublisher - реализация WebhookPublisher и Queue поверх списка Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH в левую часть списка, воркер забирает справа
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// Pop блокируется до появления события в очереди
func (p *RedisWebhookPublisher) Pop(ctx context.Context) (string, error) {
	result, err := p.redisClient.BRPop(ctx, 0, webhookQueueKey).Result()
	if err != nil {
		return "", err
	}
	// result[0] - ключ, result[1] - значение
	return result[1], nil
}

// MemoryWebhookPublisher - очередь в памяти процесса для запуска без Redis
type MemoryWebhookPublisher struct {
	events chan string
}

func NewMemoryWebhookPublisher(size int) *MemoryWebhookPublisher {
	if size <= 0 {
		size = 128
	}
	return &MemoryWebhookPublisher{events: make(chan string, size)}
}

func (p *MemoryWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}
	select {
	case p.events <- string(payload):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("webhook queue is full")
	}
}

func (p *MemoryWebhookPublisher) Pop(ctx context.Context) (string, error) {
	select {
	case payload := <-p.events:
		return payload, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
