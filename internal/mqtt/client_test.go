package mqtt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/config"
	service_mocks "github.com/shenikar/geo_safety_monitor/internal/handler/http/v1/mocks"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestConsumer(t *testing.T) (*Consumer, *service_mocks.MockSubjectService) {
	ctrl := gomock.NewController(t)
	subjectsMock := service_mocks.NewMockSubjectService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		MQTTBroker:   "tcp://localhost:1883",
		MQTTClientID: "test",
		MQTTTopic:    "safety/subjects/+/location",
	}
	// Клиент создаётся без подключения к брокеру
	return NewConsumer(subjectsMock, logger, cfg), subjectsMock
}

func TestSubjectFromTopic(t *testing.T) {
	cases := []struct {
		topic    string
		expected string
		wantErr  bool
	}{
		{"safety/subjects/tourist-1/location", "tourist-1", false},
		{"tourist-2/location", "tourist-2", false},
		{"location", "", true},
		{"safety/subjects//location", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.topic, func(t *testing.T) {
			id, err := SubjectFromTopic(tc.topic)
			if tc.wantErr {
				var vErr *models.ValidationError
				require.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestHandleMessage_IngestsLocation(t *testing.T) {
	// Подготовка
	consumer, subjectsMock := newTestConsumer(t)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"latitude":55.75,"longitude":37.61,"accuracy_meters":12.5,"timestamp":"2025-06-01T12:00:00Z"}`)

	// Ожидания
	subjectsMock.EXPECT().
		Ingest(gomock.Any(), "tourist-1", models.Location{
			Latitude:       55.75,
			Longitude:      37.61,
			AccuracyMeters: 12.5,
			Timestamp:      ts,
		}).
		DoAndReturn(func(ctx context.Context, id string, loc models.Location) (*service.IngestResult, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return &service.IngestResult{}, nil
		}).
		Times(1)

	// Действие
	err := consumer.HandleMessage("safety/subjects/tourist-1/location", payload)

	// Проверки
	require.NoError(t, err)
}

func TestHandleMessage_InvalidPayload(t *testing.T) {
	consumer, subjectsMock := newTestConsumer(t)
	subjectsMock.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := consumer.HandleMessage("safety/subjects/tourist-1/location", []byte("{not json"))

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payload", vErr.Field)
}

func TestHandleMessage_PropagatesIngestError(t *testing.T) {
	consumer, subjectsMock := newTestConsumer(t)
	notFound := &models.NotFoundError{Kind: "subject", ID: "ghost"}
	subjectsMock.EXPECT().Ingest(gomock.Any(), "ghost", gomock.Any()).Return(nil, notFound).Times(1)

	err := consumer.HandleMessage("safety/subjects/ghost/location", []byte(`{"latitude":1,"longitude":1,"accuracy_meters":5,"timestamp":"2025-06-01T12:00:00Z"}`))

	assert.True(t, models.IsNotFound(err))
}
