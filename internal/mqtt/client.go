package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	ingestTimeout = 5 * time.Second
	subscribeQoS  = 1
)

// locationMessage - полезная нагрузка, публикуемая устройством субъекта
type locationMessage struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

// Consumer принимает координаты с устройств через MQTT и передаёт их в конвейер приёма
type Consumer struct {
	client   pahomqtt.Client
	subjects service.SubjectService
	logger   *logrus.Logger
	cfg      *config.Config
}

func NewConsumer(subjects service.SubjectService, logger *logrus.Logger, cfg *config.Config) *Consumer {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	c := &Consumer{
		subjects: subjects,
		logger:   logger,
		cfg:      cfg,
	}
	// после переподключения подписка восстанавливается здесь же
	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		if err := c.subscribe(client); err != nil {
			logger.WithError(err).Error("Failed to subscribe to MQTT topic")
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})
	c.client = pahomqtt.NewClient(opts)
	return c
}

// Start подключается к брокеру
func (c *Consumer) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.logger.WithFields(logrus.Fields{
		"broker": c.cfg.MQTTBroker,
		"topic":  c.cfg.MQTTTopic,
	}).Info("MQTT consumer connected")
	return nil
}

// Stop отключается от брокера
func (c *Consumer) Stop() {
	c.client.Disconnect(250) // 250ms на отправку оставшихся пакетов
	c.logger.Info("MQTT consumer disconnected")
}

func (c *Consumer) subscribe(client pahomqtt.Client) error {
	token := client.Subscribe(c.cfg.MQTTTopic, subscribeQoS, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if err := c.HandleMessage(msg.Topic(), msg.Payload()); err != nil {
			// ошибка одного сообщения не прерывает приём
			c.logger.WithError(err).WithField("topic", msg.Topic()).Warn("Failed to handle MQTT location message")
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.MQTTTopic, token.Error())
	}
	return nil
}

// HandleMessage разбирает сообщение вида safety/subjects/{id}/location и передаёт точку в Ingest
func (c *Consumer) HandleMessage(topic string, payload []byte) error {
	subjectID, err := SubjectFromTopic(topic)
	if err != nil {
		return err
	}

	var msg locationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return &models.ValidationError{Field: "payload", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	_, err = c.subjects.Ingest(ctx, subjectID, models.Location{
		Latitude:       msg.Latitude,
		Longitude:      msg.Longitude,
		AccuracyMeters: msg.AccuracyMeters,
		Timestamp:      msg.Timestamp,
	})
	return err
}

// SubjectFromTopic извлекает id субъекта из предпоследнего сегмента топика
func SubjectFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return "", &models.ValidationError{Field: "topic", Reason: fmt.Sprintf("cannot extract subject id from %q", topic)}
	}
	return parts[len(parts)-2], nil
}
