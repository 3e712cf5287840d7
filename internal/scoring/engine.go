// Package scoring реализует детерминированный расчёт счёта безопасности.
//
// Счёт сглажен: каждая оценка сдвигает предыдущее значение на ограниченную величину
// в зависимости от уровня риска текущей зоны, поэтому дрожание GPS не вызывает
// скачков статуса. Функция чистая - результат зависит только от аргументов.
package scoring

import (
	"time"

	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// Params - настраиваемые коэффициенты модели
type Params struct {
	DangerDecay  int
	CautionDecay int
	RecoveryRate int
	SafeDwell    time.Duration
	Freshness    time.Duration
	StalePenalty int
}

// DefaultParams возвращает коэффициенты по умолчанию
func DefaultParams() Params {
	return Params{
		DangerDecay:  20,
		CautionDecay: 5,
		RecoveryRate: 5,
		SafeDwell:    2 * time.Minute,
		Freshness:    5 * time.Minute,
		StalePenalty: 10,
	}
}

type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	params.DangerDecay = max(params.DangerDecay, 0)
	params.CautionDecay = max(params.CautionDecay, 0)
	params.RecoveryRate = max(params.RecoveryRate, 0)
	params.StalePenalty = max(params.StalePenalty, 0)
	return &Engine{params: params}
}

// Params возвращает действующие коэффициенты
func (e *Engine) Params() Params {
	return e.params
}

// Compute вычисляет новый счёт из предыдущего, истории перемещений и уровня риска текущей зоны.
//   - danger и caution снижают счёт на фиксированную величину за оценку;
//   - safe повышает счёт только после минимального времени непрерывного пребывания в safe;
//   - устаревшее местоположение тянет счёт вниз до границы warning независимо от зоны.
func (e *Engine) Compute(previous int, trail []models.TrailPoint, tier models.Tier, now time.Time) int {
	score := clamp(previous)
	stale := e.IsStale(trail, now)

	switch tier {
	case models.TierDanger:
		score -= e.params.DangerDecay
	case models.TierCaution:
		score -= e.params.CautionDecay
	default:
		if !stale && e.SafeDwell(trail, now) >= e.params.SafeDwell {
			score += e.params.RecoveryRate
		}
	}

	if stale && score > models.WarningScoreThreshold {
		score = max(models.WarningScoreThreshold, score-e.params.StalePenalty)
	}
	return clamp(score)
}

// IsStale сообщает, что последняя точка старше порога свежести.
// Пустая история устаревшей не считается: оценивать нечего.
func (e *Engine) IsStale(trail []models.TrailPoint, now time.Time) bool {
	if len(trail) == 0 || e.params.Freshness <= 0 {
		return false
	}
	last := trail[len(trail)-1].Location.Timestamp
	return now.Sub(last) > e.params.Freshness
}

// SafeDwell - сколько субъект непрерывно находится в safe-зоне к моменту now
func (e *Engine) SafeDwell(trail []models.TrailPoint, now time.Time) time.Duration {
	var since time.Time
	for i := len(trail) - 1; i >= 0; i-- {
		if trail[i].Tier != models.TierSafe {
			break
		}
		since = trail[i].Location.Timestamp
	}
	if since.IsZero() || now.Before(since) {
		return 0
	}
	return now.Sub(since)
}

// StatusFor переводит счёт в статус по фиксированным порогам
func StatusFor(score int) models.Status {
	return models.StatusFromScore(clamp(score))
}

func clamp(score int) int {
	return min(max(score, models.MinSafetyScore), models.MaxSafetyScore)
}
