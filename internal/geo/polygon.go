package geo

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// edgeEpsilon - допуск в градусах для попадания точки на ребро
const edgeEpsilon = 1e-12

// openRing отбрасывает замыкающую вершину, если она совпадает с первой
func openRing(ring []models.Point) []models.Point {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		return append([]models.Point(nil), ring[:n-1]...)
	}
	return append([]models.Point(nil), ring...)
}

// boundsOf строит прямоугольник широт/долгот, описанный вокруг кольца.
// Используется для быстрого отсечения зон до точной проверки.
func boundsOf(ring []models.Point) s2.Rect {
	minLat, maxLat := ring[0].Lat, ring[0].Lat
	minLng, maxLng := ring[0].Lng, ring[0].Lng
	for _, p := range ring[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(minLat), Hi: radians(maxLat)},
		Lng: s1.IntervalFromEndpoints(radians(minLng), radians(maxLng)),
	}
}

// radians переводит градусы так же, как это делает s2.LatLngFromDegrees,
// чтобы вершины на границе прямоугольника сравнивались точно
func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// ringContains - проверка точки методом трассировки луча.
// Точки на рёбрах и в вершинах считаются внутренними.
func ringContains(ring []models.Point, p models.Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if onSegment(a, b, p) {
			return true
		}
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p models.Point) bool {
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	if math.Abs(cross) > edgeEpsilon {
		return false
	}
	return p.Lng >= min(a.Lng, b.Lng)-edgeEpsilon && p.Lng <= max(a.Lng, b.Lng)+edgeEpsilon &&
		p.Lat >= min(a.Lat, b.Lat)-edgeEpsilon && p.Lat <= max(a.Lat, b.Lat)+edgeEpsilon
}

// ValidPoint проверяет диапазоны широты и долготы
func ValidPoint(p models.Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
