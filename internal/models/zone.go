package models

// Tier - уровень риска зоны
type Tier string

const (
	TierSafe    Tier = "safe"
	TierCaution Tier = "caution"
	TierDanger  Tier = "danger"
)

// Severity возвращает числовую тяжесть уровня, чем больше - тем опаснее
func (t Tier) Severity() int {
	switch t {
	case TierDanger:
		return 2
	case TierCaution:
		return 1
	default:
		return 0
	}
}

// Valid проверяет, что уровень риска входит в допустимый набор
func (t Tier) Valid() bool {
	switch t {
	case TierSafe, TierCaution, TierDanger:
		return true
	}
	return false
}

// Point - географическая точка в градусах
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zone - именованный геозабор с уровнем риска.
// Ring - замкнутое кольцо вершин, первая вершина может совпадать с последней.
type Zone struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Tier Tier    `json:"tier"`
	Ring []Point `json:"ring"`
}
