package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/shenikar/geo_safety_monitor/internal/repository/memstore"
	"github.com/shenikar/geo_safety_monitor/internal/scoring"
	"github.com/shenikar/geo_safety_monitor/internal/webhook"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock - управляемые часы для сервисов
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testEnv собирает сервисы поверх хранилища в памяти, настоящего каталога и хаба
type testEnv struct {
	cfg       *config.Config
	clock     *testClock
	subjects  *memstore.SubjectStore
	incidents *memstore.IncidentStore
	catalog   *geo.Catalog
	hub       *hub.Hub
	persister *Persister
	registry  *Registry
	alerts    *webhook.MemoryWebhookPublisher

	subjectSvc   *subjectService
	incidentSvc  *incidentService
	emergencySvc *emergencyService
}

func testConfig() *config.Config {
	return &config.Config{
		StoreDriver:        config.StoreDriverMemory,
		PanicGracePeriod:   time.Hour,
		LocationFreshness:  5 * time.Minute,
		InitialSafetyScore: 85,
		ScoreDangerDecay:   20,
		ScoreCautionDecay:  5,
		ScoreRecoveryRate:  5,
		ScoreSafeDwell:     2 * time.Minute,
		ScoreStalePenalty:  10,
		TrailMaxSamples:    50,
		TrailMaxAge:        30 * time.Minute,
		IngestMaxClockSkew: 2 * time.Minute,
		PersistQueueSize:   64,
		HubQueueSize:       64,
	}
}

// Зоны: квадрат danger вокруг (10,10)-(11,11), квадрат caution вокруг (20,20)-(21,21)
func testZones() []models.Zone {
	return []models.Zone{
		{ID: "danger-1", Name: "Old Port", Tier: models.TierDanger, Ring: square(10, 10, 1)},
		{ID: "caution-1", Name: "Night Market", Tier: models.TierCaution, Ring: square(20, 20, 1)},
	}
}

func square(lat, lng, size float64) []models.Point {
	return []models.Point{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + size},
		{Lat: lat + size, Lng: lng + size},
		{Lat: lat + size, Lng: lng},
		{Lat: lat, Lng: lng},
	}
}

var (
	safePoint    = models.Point{Lat: 0.5, Lng: 0.5}
	dangerPoint  = models.Point{Lat: 10.5, Lng: 10.5}
	cautionPoint = models.Point{Lat: 20.5, Lng: 20.5}
)

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	env := &testEnv{
		cfg:       cfg,
		clock:     &testClock{now: fixedNow},
		subjects:  memstore.NewSubjectStore(),
		incidents: memstore.NewIncidentStore(),
		catalog:   geo.NewCatalog(),
		hub:       hub.New(cfg.HubQueueSize, logger),
		persister: NewPersister(cfg.PersistQueueSize, logger),
		alerts:    webhook.NewMemoryWebhookPublisher(16),
	}
	env.persister.Start()
	env.registry = NewRegistry(env.subjects)

	engine := scoring.NewEngine(scoring.Params{
		DangerDecay:  cfg.ScoreDangerDecay,
		CautionDecay: cfg.ScoreCautionDecay,
		RecoveryRate: cfg.ScoreRecoveryRate,
		SafeDwell:    cfg.ScoreSafeDwell,
		Freshness:    cfg.LocationFreshness,
		StalePenalty: cfg.ScoreStalePenalty,
	})

	env.subjectSvc = NewSubjectService(env.registry, env.subjects, env.catalog, engine, env.hub, env.persister, logger, cfg).(*subjectService)
	env.subjectSvc.now = env.clock.Now
	env.incidentSvc = NewIncidentService(env.incidents, env.hub, logger, cfg).(*incidentService)
	env.incidentSvc.now = env.clock.Now
	env.emergencySvc = NewEmergencyService(env.registry, env.subjects, env.incidentSvc, env.hub, env.alerts, env.persister, logger, cfg).(*emergencyService)
	env.emergencySvc.now = env.clock.Now

	t.Cleanup(func() {
		env.emergencySvc.Stop()
		env.persister.Close()
		env.hub.Close()
	})
	return env
}

func (e *testEnv) loadZones(t *testing.T) {
	t.Helper()
	require.NoError(t, e.catalog.Load(testZones()))
}

func (e *testEnv) register(t *testing.T, id string) *models.Subject {
	t.Helper()
	subject, err := e.subjectSvc.Register(context.Background(), id, models.Profile{Name: "Anna", EmergencyContact: "+100000"})
	require.NoError(t, err)
	return subject
}

// ingestAt выставляет часы на момент точки и принимает её
func (e *testEnv) ingestAt(t *testing.T, id string, p models.Point, at time.Time) *IngestResult {
	t.Helper()
	e.clock.Set(at)
	res, err := e.subjectSvc.Ingest(context.Background(), id, models.Location{
		Latitude:       p.Lat,
		Longitude:      p.Lng,
		AccuracyMeters: 10,
		Timestamp:      at,
	})
	require.NoError(t, err)
	return res
}

// drain забирает все события, уже лежащие в очереди подписки
func drain(sub *hub.Subscription) []models.Event {
	var events []models.Event
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		ev, err := sub.Next(ctx)
		cancel()
		if err != nil {
			return events
		}
		events = append(events, ev)
	}
}

func countType(events []models.Event, eventType models.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func TestRegister_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	first := env.register(t, "s1")
	assert.Equal(t, 85, first.SafetyScore)
	assert.Equal(t, models.StatusSafe, first.Status)
	assert.Equal(t, models.TierSafe, first.Tier)
	assert.Nil(t, first.Location)

	// Повторная регистрация не меняет профиль и состояние
	second, err := env.subjectSvc.Register(context.Background(), "s1", models.Profile{Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", second.Profile.Name)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	stored, err := env.subjects.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", stored.Profile.Name)
}

func TestRegister_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.subjectSvc.Register(context.Background(), "", models.Profile{})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "id", vErr.Field)
}

func TestIngest_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)

	_, err := env.subjectSvc.Ingest(context.Background(), "ghost", models.Location{
		Latitude: 1, Longitude: 1, AccuracyMeters: 5, Timestamp: fixedNow,
	})

	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestIngest_AutoRegister(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.AutoRegisterSubjects = true })
	env.loadZones(t)

	res := env.ingestAt(t, "device-42", safePoint, fixedNow)

	assert.Equal(t, "device-42", res.Subject.ID)
	assert.Equal(t, "device-42", res.Subject.Profile.Name)
	require.NotNil(t, res.Subject.Location)
}

func TestIngest_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	cases := []struct {
		name  string
		loc   models.Location
		field string
	}{
		{"latitude out of range", models.Location{Latitude: 91, Longitude: 0, AccuracyMeters: 5, Timestamp: fixedNow}, "location"},
		{"longitude out of range", models.Location{Latitude: 0, Longitude: -181, AccuracyMeters: 5, Timestamp: fixedNow}, "location"},
		{"non-positive accuracy", models.Location{Latitude: 0, Longitude: 0, AccuracyMeters: 0, Timestamp: fixedNow}, "accuracy_meters"},
		{"missing timestamp", models.Location{Latitude: 0, Longitude: 0, AccuracyMeters: 5}, "timestamp"},
		{"future timestamp", models.Location{Latitude: 0, Longitude: 0, AccuracyMeters: 5, Timestamp: fixedNow.Add(time.Hour)}, "timestamp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.subjectSvc.Ingest(context.Background(), "s1", tc.loc)

			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestIngest_OutOfOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	env.ingestAt(t, "s1", safePoint, fixedNow.Add(time.Minute))

	_, err := env.subjectSvc.Ingest(context.Background(), "s1", models.Location{
		Latitude: safePoint.Lat, Longitude: safePoint.Lng, AccuracyMeters: 5, Timestamp: fixedNow,
	})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "timestamp", vErr.Field)

	subject, err := env.subjectSvc.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Minute), subject.Location.Timestamp)
	assert.Len(t, subject.Trail, 1)
}

func TestIngest_CatalogNotLoadedIsDegraded(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "s1")

	res := env.ingestAt(t, "s1", dangerPoint, fixedNow)

	assert.True(t, res.Degraded)
	assert.Equal(t, models.TierSafe, res.Tier)
	assert.Equal(t, 85, res.Subject.SafetyScore)
}

func TestIngest_TierAndZones(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	res := env.ingestAt(t, "s1", cautionPoint, fixedNow)

	assert.False(t, res.Degraded)
	assert.Equal(t, models.TierCaution, res.Tier)
	assert.Equal(t, []string{"caution-1"}, res.Subject.ZoneIDs)
	assert.Equal(t, 80, res.Subject.SafetyScore)
	assert.Equal(t, -5, res.ScoreDelta)
}

func TestIngest_DangerZoneStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")
	env.ingestAt(t, "s1", safePoint, fixedNow)

	sub := env.hub.Subscribe(hub.Filter{SubjectIDs: []string{"s1"}})
	defer sub.Close()

	// Пять точек в danger-зоне с шагом 30 секунд
	expectedScores := []int{65, 45, 25, 5, 0}
	expectedStatuses := []models.Status{
		models.StatusWarning, models.StatusWarning, models.StatusEmergency, models.StatusEmergency, models.StatusEmergency,
	}
	prev := 85
	for i := range expectedScores {
		res := env.ingestAt(t, "s1", dangerPoint, fixedNow.Add(time.Duration(i+1)*30*time.Second))
		assert.Equal(t, expectedScores[i], res.Subject.SafetyScore)
		assert.Equal(t, expectedStatuses[i], res.Subject.Status)
		assert.LessOrEqual(t, res.Subject.SafetyScore, prev)
		prev = res.Subject.SafetyScore
	}

	events := drain(sub)
	require.Len(t, events, 5)
	assert.Equal(t, 2, countType(events, models.EventStatusChange))

	assert.Equal(t, models.EventStatusChange, events[0].Type)
	assert.Equal(t, models.StatusSafe, events[0].PrevStatus)
	assert.Equal(t, models.StatusWarning, events[0].Status)
	assert.Equal(t, models.EventStatusChange, events[2].Type)
	assert.Equal(t, models.StatusWarning, events[2].PrevStatus)
	assert.Equal(t, models.StatusEmergency, events[2].Status)

	// Порядок событий одного субъекта сохраняется
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestIngest_SafeRecoveryNeedsDwell(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	env.ingestAt(t, "s1", cautionPoint, fixedNow)
	res := env.ingestAt(t, "s1", safePoint, fixedNow.Add(30*time.Second))
	assert.Equal(t, 80, res.Subject.SafetyScore)

	res = env.ingestAt(t, "s1", safePoint, fixedNow.Add(time.Minute+30*time.Second))
	assert.Equal(t, 80, res.Subject.SafetyScore)

	// Две минуты непрерывно в safe
	res = env.ingestAt(t, "s1", safePoint, fixedNow.Add(2*time.Minute+30*time.Second))
	assert.Equal(t, 85, res.Subject.SafetyScore)
}

func TestRecompute_StaleLocationPenalty(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")
	env.ingestAt(t, "s1", safePoint, fixedNow)

	// Последняя точка 10 минут назад при пороге свежести 5 минут
	env.clock.Advance(10 * time.Minute)

	subject, err := env.subjectSvc.Recompute(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.TierSafe, subject.Tier)
	assert.Equal(t, 75, subject.SafetyScore)

	subject, err = env.subjectSvc.Recompute(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 65, subject.SafetyScore)
	assert.Equal(t, models.StatusWarning, subject.Status)

	// Штраф не опускает счёт ниже границы warning
	for range 5 {
		subject, err = env.subjectSvc.Recompute(context.Background(), "s1")
		require.NoError(t, err)
	}
	assert.Equal(t, models.WarningScoreThreshold, subject.SafetyScore)
}

func TestSweep_RecomputesStaleSubjects(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")
	env.register(t, "s2")
	env.register(t, "no-location")
	env.ingestAt(t, "s1", safePoint, fixedNow)
	env.ingestAt(t, "s2", safePoint, fixedNow)

	sub := env.hub.Subscribe(hub.Filter{})
	defer sub.Close()

	env.clock.Advance(10 * time.Minute)
	changed := env.subjectSvc.Sweep(context.Background())

	assert.Equal(t, 2, changed)
	assert.Len(t, drain(sub), 2)

	s1, err := env.subjectSvc.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 75, s1.SafetyScore)
}

func TestIngest_TrailEviction(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.TrailMaxSamples = 3 })
	env.loadZones(t)
	env.register(t, "s1")

	for i := range 5 {
		env.ingestAt(t, "s1", safePoint, fixedNow.Add(time.Duration(i)*time.Second))
	}

	subject, err := env.subjectSvc.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, subject.Trail, 3)
	assert.Equal(t, fixedNow.Add(2*time.Second), subject.Trail[0].Location.Timestamp)
	assert.Equal(t, fixedNow.Add(4*time.Second), subject.Trail[2].Location.Timestamp)
}

func TestIngest_TrailAgeEviction(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.TrailMaxAge = time.Minute })
	env.loadZones(t)
	env.register(t, "s1")

	env.ingestAt(t, "s1", safePoint, fixedNow)
	env.ingestAt(t, "s1", safePoint, fixedNow.Add(30*time.Second))
	env.ingestAt(t, "s1", safePoint, fixedNow.Add(2*time.Minute))

	subject, err := env.subjectSvc.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, subject.Trail, 1)
	assert.Equal(t, fixedNow.Add(2*time.Minute), subject.Trail[0].Location.Timestamp)
}

func TestIngest_PersistsAsynchronously(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	env.ingestAt(t, "s1", cautionPoint, fixedNow)
	env.ingestAt(t, "s1", dangerPoint, fixedNow.Add(time.Second))
	env.persister.Close()

	updates := env.subjects.LocationUpdates("s1")
	require.Len(t, updates, 2)
	assert.Equal(t, models.TierCaution, updates[0].Tier)
	assert.Equal(t, models.TierDanger, updates[1].Tier)

	stored, err := env.subjects.GetSubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 60, stored.SafetyScore)
	assert.Equal(t, []string{"danger-1"}, stored.ZoneIDs)
}

func TestListSubjects_FilterAndPaging(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	for _, id := range []string{"a", "b", "c"} {
		env.register(t, id)
	}
	env.ingestAt(t, "b", dangerPoint, fixedNow)

	warning, err := env.subjectSvc.ListSubjects(context.Background(), models.SubjectFilter{Status: models.StatusWarning})
	require.NoError(t, err)
	require.Len(t, warning, 1)
	assert.Equal(t, "b", warning[0].ID)
	assert.Empty(t, warning[0].Trail)

	page, err := env.subjectSvc.ListSubjects(context.Background(), models.SubjectFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)

	_, err = env.subjectSvc.ListSubjects(context.Background(), models.SubjectFilter{Status: "lost"})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSubjectStats(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "a")
	env.register(t, "b")
	env.ingestAt(t, "a", dangerPoint, fixedNow)

	stats, err := env.subjectSvc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSubjects)
	assert.Equal(t, 1, stats.ActiveSubjects)
	assert.Equal(t, 0, stats.EmergencySubjects)
	assert.InDelta(t, 75.0, stats.AverageSafetyScore, 0.001)
}

func TestRestore_LoadsPersistedSubjects(t *testing.T) {
	env := newTestEnv(t)
	loc := models.Location{Latitude: 1, Longitude: 1, AccuracyMeters: 5, Timestamp: fixedNow}
	require.NoError(t, env.subjects.SaveSubject(context.Background(), &models.Subject{
		ID: "persisted", Profile: models.Profile{Name: "P"}, SafetyScore: 50, Status: models.StatusWarning, Location: &loc,
	}))

	restored, err := env.subjectSvc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, env.registry.Len())

	// Точка старше последней сохранённой отклоняется и после перезапуска
	_, err = env.subjectSvc.Ingest(context.Background(), "persisted", models.Location{
		Latitude: 1, Longitude: 1, AccuracyMeters: 5, Timestamp: fixedNow.Add(-time.Second),
	})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestGetSubject_LoadsFromRepositoryOnMiss(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.subjects.SaveSubject(context.Background(), &models.Subject{ID: "lazy", SafetyScore: 90, Status: models.StatusSafe}))

	subject, err := env.subjectSvc.GetSubject(context.Background(), "lazy")

	require.NoError(t, err)
	assert.Equal(t, 90, subject.SafetyScore)
	assert.Equal(t, 1, env.registry.Len())
}

func TestIngest_PersistedHistoryFollowsAcceptedOrder(t *testing.T) {
	// Подготовка
	env := newTestEnv(t, func(cfg *config.Config) { cfg.PersistQueueSize = 8192 })
	env.loadZones(t)
	env.register(t, "s1")
	env.clock.Set(fixedNow.Add(time.Hour))
	ctx := context.Background()

	var counter, accepted atomic.Int64
	var wg sync.WaitGroup

	// Действие: конкурирующие источники шлют точки с растущими метками времени
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				ts := fixedNow.Add(time.Duration(counter.Add(1)) * time.Millisecond)
				_, err := env.subjectSvc.Ingest(ctx, "s1", models.Location{
					Latitude:       safePoint.Lat,
					Longitude:      safePoint.Lng,
					AccuracyMeters: 5,
					Timestamp:      ts,
				})
				if err == nil {
					accepted.Add(1)
					continue
				}
				var vErr *models.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("unexpected ingest error: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	env.persister.Close()

	// Проверки: сохранённая история и снимок идут в порядке применения
	updates := env.subjects.LocationUpdates("s1")
	require.Len(t, updates, int(accepted.Load()))
	for i := 1; i < len(updates); i++ {
		require.False(t, updates[i].Location.Timestamp.Before(updates[i-1].Location.Timestamp),
			"persisted history goes backwards at %d", i)
	}

	live, err := env.subjectSvc.GetSubject(ctx, "s1")
	require.NoError(t, err)
	stored, err := env.subjects.GetSubject(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, stored.Location)
	assert.Equal(t, live.Location.Timestamp, stored.Location.Timestamp)
}

func TestIngest_BufferedSampleOlderThanFreshnessIsPenalised(t *testing.T) {
	env := newTestEnv(t)
	env.loadZones(t)
	env.register(t, "s1")

	// Устройство досылает точку, снятую 10 минут назад: счёт считается на момент приёма
	env.clock.Set(fixedNow.Add(10 * time.Minute))
	res, err := env.subjectSvc.Ingest(context.Background(), "s1", models.Location{
		Latitude:       safePoint.Lat,
		Longitude:      safePoint.Lng,
		AccuracyMeters: 10,
		Timestamp:      fixedNow,
	})

	require.NoError(t, err)
	assert.Equal(t, 75, res.Subject.SafetyScore)
	assert.Equal(t, models.TierSafe, res.Tier)
}
