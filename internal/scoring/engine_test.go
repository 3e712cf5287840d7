package scoring

import (
	"testing"
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func trailOf(tier models.Tier, start time.Time, step time.Duration, n int) []models.TrailPoint {
	trail := make([]models.TrailPoint, n)
	for i := range trail {
		trail[i] = models.TrailPoint{
			Location: models.Location{Latitude: 26.2, Longitude: 92.9, AccuracyMeters: 10, Timestamp: start.Add(time.Duration(i) * step)},
			Tier:     tier,
		}
	}
	return trail
}

func TestStatusFor_Thresholds(t *testing.T) {
	tests := []struct {
		score int
		want  models.Status
	}{
		{100, models.StatusSafe},
		{70, models.StatusSafe},
		{69, models.StatusWarning},
		{40, models.StatusWarning},
		{39, models.StatusEmergency},
		{0, models.StatusEmergency},
		{-5, models.StatusEmergency},
		{150, models.StatusSafe},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.score), "score %d", tt.score)
	}
}

func TestCompute_DangerDecay(t *testing.T) {
	e := NewEngine(DefaultParams())
	trail := trailOf(models.TierDanger, base, 30*time.Second, 1)

	assert.Equal(t, 65, e.Compute(85, trail, models.TierDanger, base))
	assert.Equal(t, 0, e.Compute(10, trail, models.TierDanger, base))
}

func TestCompute_CautionDecay(t *testing.T) {
	e := NewEngine(DefaultParams())
	trail := trailOf(models.TierCaution, base, 30*time.Second, 1)

	assert.Equal(t, 80, e.Compute(85, trail, models.TierCaution, base))
	assert.Equal(t, 0, e.Compute(3, trail, models.TierCaution, base))
}

func TestCompute_SafeRecoveryNeedsDwell(t *testing.T) {
	e := NewEngine(DefaultParams())

	// один образец в safe-зоне - восстановления нет
	single := trailOf(models.TierSafe, base, 30*time.Second, 1)
	assert.Equal(t, 50, e.Compute(50, single, models.TierSafe, base))

	// четыре образца по 30с = 90с < 2 минут
	short := trailOf(models.TierSafe, base, 30*time.Second, 4)
	assert.Equal(t, 50, e.Compute(50, short, models.TierSafe, base.Add(90*time.Second)))

	// пять образцов по 30с = 2 минуты
	long := trailOf(models.TierSafe, base, 30*time.Second, 5)
	assert.Equal(t, 55, e.Compute(50, long, models.TierSafe, base.Add(2*time.Minute)))
	assert.Equal(t, 100, e.Compute(98, long, models.TierSafe, base.Add(2*time.Minute)))
}

func TestCompute_DwellResetsAfterDanger(t *testing.T) {
	e := NewEngine(DefaultParams())
	trail := append(trailOf(models.TierSafe, base, 30*time.Second, 5), trailOf(models.TierDanger, base.Add(150*time.Second), 30*time.Second, 1)...)
	trail = append(trail, trailOf(models.TierSafe, base.Add(180*time.Second), 30*time.Second, 1)...)

	now := base.Add(180 * time.Second)
	assert.Equal(t, time.Duration(0), e.SafeDwell(trail, now))
	assert.Equal(t, 50, e.Compute(50, trail, models.TierSafe, now))
}

func TestCompute_StalePenalty(t *testing.T) {
	e := NewEngine(DefaultParams())
	trail := trailOf(models.TierSafe, base, 30*time.Second, 10)
	last := trail[len(trail)-1].Location.Timestamp
	now := last.Add(10 * time.Minute)

	assert.True(t, e.IsStale(trail, now))
	assert.Equal(t, 75, e.Compute(85, trail, models.TierSafe, now))
	// штраф не опускает счёт ниже границы warning
	assert.Equal(t, 40, e.Compute(45, trail, models.TierSafe, now))
	// и не трогает уже аварийный счёт
	assert.Equal(t, 30, e.Compute(30, trail, models.TierSafe, now))
	// в опасной зоне действуют оба давления
	assert.Equal(t, 55, e.Compute(85, trail, models.TierDanger, now))
}

func TestCompute_FreshTrailIsNotStale(t *testing.T) {
	e := NewEngine(DefaultParams())
	trail := trailOf(models.TierSafe, base, 30*time.Second, 1)

	assert.False(t, e.IsStale(trail, base.Add(5*time.Minute)))
	assert.False(t, e.IsStale(nil, base))
}

func TestCompute_BoundedAndDeterministic(t *testing.T) {
	e := NewEngine(DefaultParams())
	tiers := []models.Tier{models.TierSafe, models.TierCaution, models.TierDanger}
	trails := [][]models.TrailPoint{
		nil,
		trailOf(models.TierSafe, base, time.Minute, 10),
		trailOf(models.TierDanger, base, time.Second, 3),
	}
	offsets := []time.Duration{0, time.Minute, 30 * time.Minute}

	for prev := -10; prev <= 110; prev += 7 {
		for _, tier := range tiers {
			for _, trail := range trails {
				for _, off := range offsets {
					now := base.Add(off)
					first := e.Compute(prev, trail, tier, now)
					second := e.Compute(prev, trail, tier, now)
					assert.Equal(t, first, second)
					assert.GreaterOrEqual(t, first, 0)
					assert.LessOrEqual(t, first, 100)
				}
			}
		}
	}
}

func TestNewEngine_NegativeParamsClamped(t *testing.T) {
	e := NewEngine(Params{DangerDecay: -5, CautionDecay: -1, RecoveryRate: -1, StalePenalty: -3})
	trail := trailOf(models.TierDanger, base, time.Second, 1)

	assert.Equal(t, 60, e.Compute(60, trail, models.TierDanger, base))
}
