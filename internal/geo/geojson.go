package geo

import (
	"fmt"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// ZonesFromFeatureCollection разбирает GeoJSON FeatureCollection в набор зон.
// Каждый Feature должен быть Polygon со свойствами "tier" и необязательным "name";
// идентификатор берётся из id фичи или свойства "id".
func ZonesFromFeatureCollection(data []byte) ([]models.Zone, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &models.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid GeoJSON: %v", err)}
	}

	zones := make([]models.Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := featureID(f)
		if f.Geometry == nil {
			return nil, &models.ValidationError{Field: "geometry", Reason: fmt.Sprintf("feature #%d has no geometry", i)}
		}
		ring, err := RingFromGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature #%d: %w", i, err)
		}
		zones = append(zones, models.Zone{
			ID:   id,
			Name: f.PropertyMustString("name", id),
			Tier: models.Tier(f.PropertyMustString("tier", "")),
			Ring: ring,
		})
	}
	return zones, nil
}

// featureID берёт id фичи, а без него свойство "id". Числовые id выводятся без экспоненты и дробной части.
func featureID(f *geojson.Feature) string {
	raw := f.ID
	if raw == nil {
		raw = f.Properties["id"]
	}
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// RingFromGeometry возвращает внешнее кольцо полигона (GeoJSON хранит пары [lng, lat]).
// Полигоны с внутренними кольцами отклоняются: каталог их не учитывает.
func RingFromGeometry(g *geojson.Geometry) ([]models.Point, error) {
	if !g.IsPolygon() || len(g.Polygon) == 0 {
		return nil, &models.ValidationError{Field: "geometry", Reason: fmt.Sprintf("unsupported geometry type %s", g.Type)}
	}
	if len(g.Polygon) > 1 {
		return nil, &models.ValidationError{Field: "geometry", Reason: "polygons with holes are not supported"}
	}
	outer := g.Polygon[0]
	ring := make([]models.Point, 0, len(outer))
	for _, pos := range outer {
		if len(pos) < 2 {
			return nil, &models.ValidationError{Field: "geometry", Reason: "position needs longitude and latitude"}
		}
		ring = append(ring, models.Point{Lat: pos[1], Lng: pos[0]})
	}
	return ring, nil
}

// ZoneGeometry строит замкнутый GeoJSON-полигон зоны
func ZoneGeometry(z models.Zone) *geojson.Geometry {
	outer := make([][]float64, 0, len(z.Ring)+1)
	for _, p := range z.Ring {
		outer = append(outer, []float64{p.Lng, p.Lat})
	}
	if n := len(z.Ring); n > 0 && z.Ring[0] != z.Ring[n-1] {
		outer = append(outer, []float64{z.Ring[0].Lng, z.Ring[0].Lat})
	}
	return geojson.NewPolygonGeometry([][][]float64{outer})
}

// ZonesToFeatureCollection - обратное преобразование для выдачи каталога рендереру карты
func ZonesToFeatureCollection(zones []models.Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(ZoneGeometry(z))
		f.ID = z.ID
		f.SetProperty("name", z.Name)
		f.SetProperty("tier", string(z.Tier))
		fc.AddFeature(f)
	}
	return fc
}
