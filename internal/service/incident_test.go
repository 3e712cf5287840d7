package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestIncidentService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *hub.Subscription) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	eventHub := hub.New(16, logger)
	sub := eventHub.Subscribe(hub.Filter{})
	t.Cleanup(sub.Close)

	service := NewIncidentService(repoMock, eventHub, logger, &config.Config{}).(*incidentService)
	service.now = func() time.Time { return fixedNow }
	return service, repoMock, sub
}

// nextEvent ждёт следующее событие подписки не дольше секунды
func nextEvent(t *testing.T, sub *hub.Subscription) models.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	return ev
}

// assertNoEvent проверяет, что в очереди подписки нет событий
func assertNoEvent(t *testing.T, sub *hub.Subscription) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetIncident_Success_FromCache(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	expectedIncident := &models.Incident{
		ID:          incidentID,
		Description: "Тестовый инцидент из кеша",
	}

	// Ожидания
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, incidentID).
		Return(expectedIncident, nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_Success_FromDB(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	expectedIncident := &models.Incident{
		ID:          incidentID,
		Description: "Тестовый инцидент из БД",
	}

	// Ожидания
	// 1. Промах кеша
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, incidentID).
		Return(nil, nil).
		Times(1)

	// 2. Попадание в БД
	repoMock.EXPECT().
		GetByID(ctx, incidentID).
		Return(expectedIncident, nil).
		Times(1)

	// 3. Запись в кеш
	repoMock.EXPECT().
		SetIncidentCache(ctx, expectedIncident).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_CacheErrorFallsBackToDB(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	expectedIncident := &models.Incident{ID: incidentID}

	// Ожидания
	repoMock.EXPECT().GetIncidentFromCache(ctx, incidentID).Return(nil, fmt.Errorf("redis down")).Times(1)
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(expectedIncident, nil).Times(1)
	repoMock.EXPECT().SetIncidentCache(ctx, expectedIncident).Return(fmt.Errorf("redis down")).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	notFound := &models.NotFoundError{Kind: "incident", ID: incidentID.String()}

	// Ожидания
	repoMock.EXPECT().GetIncidentFromCache(ctx, incidentID).Return(nil, nil).Times(1)
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, notFound).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.True(t, models.IsNotFound(err))
}

func TestGetIncident_RepositoryError(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetIncidentFromCache(ctx, incidentID).Return(nil, nil).Times(1)
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, fmt.Errorf("connection reset")).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorContains(t, err, "could not get incident")
}

func TestCreateReport_Success(t *testing.T) {
	// Подготовка
	service, repoMock, sub := newTestIncidentService(t)
	ctx := context.Background()
	incidentToCreate := &models.Incident{
		SubjectID:   "tourist-1",
		Type:        models.IncidentMedical,
		Description: "Сердечный приступ",
		Latitude:    55.75,
		Longitude:   37.61,
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		Do(func(ctx context.Context, inc *models.Incident) {
			assert.NotEqual(t, uuid.Nil, inc.ID)
			assert.Equal(t, models.IncidentOpen, inc.Status)
		}).
		Return(nil).
		Times(1)

	// Действие
	err := service.CreateReport(ctx, incidentToCreate)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, incidentToCreate.Priority)
	assert.Equal(t, fixedNow, incidentToCreate.CreatedAt)

	ev := nextEvent(t, sub)
	assert.Equal(t, models.EventIncidentOpened, ev.Type)
	assert.Equal(t, "tourist-1", ev.SubjectID)
	require.NotNil(t, ev.Incident)
	assert.Equal(t, incidentToCreate.ID, ev.Incident.ID)
}

func TestCreateReport_DefaultPriority(t *testing.T) {
	cases := []struct {
		incidentType models.IncidentType
		expected     models.Priority
	}{
		{models.IncidentMissing, models.PriorityHigh},
		{models.IncidentCrime, models.PriorityHigh},
		{models.IncidentManualReport, models.PriorityMedium},
	}
	for _, tc := range cases {
		t.Run(string(tc.incidentType), func(t *testing.T) {
			service, repoMock, _ := newTestIncidentService(t)
			repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

			incident := &models.Incident{SubjectID: "s", Type: tc.incidentType}
			require.NoError(t, service.CreateReport(context.Background(), incident))
			assert.Equal(t, tc.expected, incident.Priority)
		})
	}
}

func TestCreateReport_ExplicitPriorityKept(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	incident := &models.Incident{SubjectID: "s", Type: models.IncidentCrime, Priority: models.PriorityLow}
	require.NoError(t, service.CreateReport(context.Background(), incident))
	assert.Equal(t, models.PriorityLow, incident.Priority)
}

func TestCreateReport_Rejected(t *testing.T) {
	cases := []struct {
		name     string
		incident *models.Incident
		field    string
	}{
		{"panic type", &models.Incident{SubjectID: "s", Type: models.IncidentPanic}, "type"},
		{"unknown type", &models.Incident{SubjectID: "s", Type: "earthquake"}, "type"},
		{"unknown priority", &models.Incident{SubjectID: "s", Type: models.IncidentCrime, Priority: "urgent"}, "priority"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Репозиторий не должен вызываться
			service, _, sub := newTestIncidentService(t)

			err := service.CreateReport(context.Background(), tc.incident)

			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assertNoEvent(t, sub)
		})
	}
}

func TestCreateReport_RepositoryError(t *testing.T) {
	service, repoMock, sub := newTestIncidentService(t)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(fmt.Errorf("insert failed")).Times(1)

	err := service.CreateReport(context.Background(), &models.Incident{SubjectID: "s", Type: models.IncidentCrime})

	require.Error(t, err)
	assert.ErrorContains(t, err, "could not create incident")
	assertNoEvent(t, sub)
}

func TestRecordPanic_Success(t *testing.T) {
	service, repoMock, sub := newTestIncidentService(t)
	incident := &models.Incident{ID: uuid.New(), SubjectID: "s", Type: models.IncidentPanic}

	repoMock.EXPECT().Create(gomock.Any(), incident).Return(nil).Times(1)

	require.NoError(t, service.RecordPanic(context.Background(), incident))
	// Событие об открытии уже опубликовал автомат тревоги
	assertNoEvent(t, sub)
}

func TestUpdateIncident_Success(t *testing.T) {
	// Подготовка
	service, repoMock, sub := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	existingIncident := &models.Incident{
		ID:        incidentID,
		SubjectID: "tourist-1",
		Status:    models.IncidentOpen,
		Priority:  models.PriorityMedium,
	}
	status := models.IncidentInvestigating
	priority := models.PriorityHigh
	operator := "operator-7"

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(existingIncident, nil).Times(1)
	repoMock.EXPECT().Update(ctx, gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)

	// Действие
	updated, err := service.UpdateIncident(ctx, incidentID, models.IncidentUpdate{
		Status:     &status,
		Priority:   &priority,
		AssignedTo: &operator,
	})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.IncidentInvestigating, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, operator, *updated.AssignedTo)
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	ev := nextEvent(t, sub)
	assert.Equal(t, models.EventIncidentUpdated, ev.Type)
	assert.Equal(t, incidentID, ev.Incident.ID)
}

func TestUpdateIncident_ReopenResolvedRejected(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	status := models.IncidentOpen

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.IncidentResolved}, nil).
		Times(1)

	// Действие
	updated, err := service.UpdateIncident(ctx, incidentID, models.IncidentUpdate{Status: &status})

	// Проверки
	var tErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "reopen", tErr.Action)
	assert.Nil(t, updated)
}

func TestUpdateIncident_InvalidStatus(t *testing.T) {
	service, _, _ := newTestIncidentService(t)
	status := models.IncidentStatus("closed")

	_, err := service.UpdateIncident(context.Background(), uuid.New(), models.IncidentUpdate{Status: &status})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestUpdateIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, incidentID).
		Return(nil, &models.NotFoundError{Kind: "incident", ID: incidentID.String()}).
		Times(1)

	// Действие
	_, err := service.UpdateIncident(ctx, incidentID, models.IncidentUpdate{})

	// Проверки
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestAcknowledge_OpenBecomesInvestigating(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.IncidentOpen}, nil).
		Times(1)
	repoMock.EXPECT().Update(ctx, gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)

	// Действие
	updated, err := service.Acknowledge(ctx, incidentID, "operator-1")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.IncidentInvestigating, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "operator-1", *updated.AssignedTo)
}

func TestAcknowledge_KeepsAssigneeAndResolvedStatus(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	assignee := "operator-2"

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.IncidentResolved, AssignedTo: &assignee}, nil).
		Times(1)
	repoMock.EXPECT().Update(ctx, gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, incidentID).Return(nil).Times(1)

	// Действие
	updated, err := service.Acknowledge(ctx, incidentID, "operator-1")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, updated.Status)
	assert.Equal(t, "operator-2", *updated.AssignedTo)
}

func TestListIncidents_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncidents := []*models.Incident{
		{ID: uuid.New(), Description: "Инцидент 1"},
		{ID: uuid.New(), Description: "Инцидент 2"},
	}

	// Ожидания
	// Невалидная пагинация нормализуется до значений по умолчанию
	repoMock.EXPECT().
		ListIncidents(ctx, models.IncidentFilter{Status: models.IncidentOpen, Page: 1, PageSize: 20}).
		Return(expectedIncidents, nil).
		Times(1)

	// Действие
	incidents, err := service.ListIncidents(ctx, models.IncidentFilter{Status: models.IncidentOpen, Page: 0, PageSize: 500})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncidents, incidents)
}

func TestListIncidents_InvalidFilter(t *testing.T) {
	service, _, _ := newTestIncidentService(t)

	_, err := service.ListIncidents(context.Background(), models.IncidentFilter{Priority: "urgent"})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "priority", vErr.Field)
}

func TestIncidentStats_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	expected := models.IncidentStats{Open: 3, Investigating: 1, Resolved: 7}

	// Ожидания
	repoMock.EXPECT().Stats(ctx).Return(expected, nil).Times(1)

	// Действие
	stats, err := service.Stats(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, stats)
}
