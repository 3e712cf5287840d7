package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// mirrorBacklogLimit - сколько событий зеркало копит, пока Kafka недоступна
	mirrorBacklogLimit = 4096
	mirrorWriteTimeout = 10 * time.Second
)

// MessageWriter - часть kafka.Writer, нужная зеркалу
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter создаёт писателя, раскладывающего события по партициям по id субъекта
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // события одного субъекта попадают в одну партицию
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// Mirror пересылает все события хаба в Kafka для внешних потребителей (диспетчерская, аналитика)
type Mirror struct {
	writer       MessageWriter
	hub          *hub.Hub
	logger       *logrus.Logger
	done         chan struct{}
	backlogLimit int
	writeTimeout time.Duration
}

func NewMirror(writer MessageWriter, eventHub *hub.Hub, logger *logrus.Logger) *Mirror {
	return &Mirror{
		writer:       writer,
		hub:          eventHub,
		logger:       logger,
		done:         make(chan struct{}),
		backlogLimit: mirrorBacklogLimit,
		writeTimeout: mirrorWriteTimeout,
	}
}

// Start подписывается на хаб и пишет события до отмены контекста.
// Пока Kafka недоступна, очередь зеркала ограничена backlogLimit, лишние события теряются с предупреждением.
func (m *Mirror) Start(ctx context.Context) {
	sub := m.hub.SubscribeBounded(hub.Filter{}, m.backlogLimit)
	m.logger.Info("Starting kafka event mirror...")

	go func() {
		defer close(m.done)
		defer sub.Close()
		for {
			ev, err := sub.Next(ctx)
			switch {
			case errors.Is(err, models.ErrDeliveryDegraded):
				m.logger.WithField("dropped", sub.Dropped()).Warn("Kafka mirror fell behind, events were dropped")
				continue
			case err != nil:
				m.logger.Info("Stopping kafka event mirror.")
				return
			}

			if err := m.write(ctx, ev); err != nil {
				m.logger.WithError(err).WithField("event_id", ev.ID).Error("Failed to mirror event to Kafka")
			}
		}
	}()
}

// Done закрывается после остановки зеркала
func (m *Mirror) Done() <-chan struct{} {
	return m.done
}

// Close закрывает писателя Kafka
func (m *Mirror) Close() error {
	return m.writer.Close()
}

func (m *Mirror) write(ctx context.Context, ev models.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SubjectID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	writeCtx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	if err := m.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}
