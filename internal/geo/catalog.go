package geo

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/golang/geo/s2"
	"github.com/shenikar/geo_safety_monitor/internal/models"
)

// Match - зона, покрывающая точку
type Match struct {
	Zone models.Zone `json:"zone"`
	Tier models.Tier `json:"tier"`
}

type indexedZone struct {
	zone   models.Zone
	ring   []models.Point
	bounds s2.Rect
}

type zoneSet struct {
	zones []indexedZone
}

// Catalog хранит набор геозон. Набор заменяется целиком атомарной подменой указателя,
// читатели никогда не видят частично обновлённый набор и не блокируют друг друга.
type Catalog struct {
	set atomic.Pointer[zoneSet]
}

// NewCatalog создает пустой, ещё не загруженный каталог
func NewCatalog() *Catalog {
	return &Catalog{}
}

// ValidateZones проверяет набор зон целиком, не меняя каталог
func ValidateZones(zones []models.Zone) error {
	seen := make(map[string]struct{}, len(zones))
	for i, z := range zones {
		if err := validateZone(z); err != nil {
			return fmt.Errorf("zone #%d: %w", i, err)
		}
		if _, dup := seen[z.ID]; dup {
			return &models.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate zone id %q", z.ID)}
		}
		seen[z.ID] = struct{}{}
	}
	return nil
}

// Load валидирует и атомарно подменяет весь набор зон
func (c *Catalog) Load(zones []models.Zone) error {
	if err := ValidateZones(zones); err != nil {
		return err
	}
	set := &zoneSet{zones: make([]indexedZone, 0, len(zones))}
	for _, z := range zones {
		ring := openRing(z.Ring)
		stored := z
		stored.Ring = append([]models.Point(nil), z.Ring...)
		set.zones = append(set.zones, indexedZone{
			zone:   stored,
			ring:   ring,
			bounds: boundsOf(ring),
		})
	}
	c.set.Store(set)
	return nil
}

// Loaded сообщает, был ли каталог загружен хотя бы раз
func (c *Catalog) Loaded() bool {
	return c.set.Load() != nil
}

// Zones возвращает копию текущего набора зон
func (c *Catalog) Zones() []models.Zone {
	set := c.set.Load()
	if set == nil {
		return nil
	}
	zones := make([]models.Zone, len(set.zones))
	for i, iz := range set.zones {
		zones[i] = iz.zone
	}
	return zones
}

// Locate возвращает зоны, покрывающие точку, по убыванию тяжести риска
func (c *Catalog) Locate(p models.Point) ([]Match, error) {
	set := c.set.Load()
	if set == nil {
		return nil, models.ErrCatalogNotLoaded
	}
	ll := s2.LatLngFromDegrees(p.Lat, p.Lng)
	matches := make([]Match, 0)
	for _, iz := range set.zones {
		if !iz.bounds.ContainsLatLng(ll) {
			continue
		}
		if ringContains(iz.ring, p) {
			matches = append(matches, Match{Zone: iz.zone, Tier: iz.zone.Tier})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Tier.Severity() > matches[j].Tier.Severity()
	})
	return matches, nil
}

// HighestTier возвращает самый опасный уровень среди покрывающих зон, safe - если зон нет.
// До загрузки каталога возвращает safe вместе с ErrCatalogNotLoaded.
func (c *Catalog) HighestTier(p models.Point) (models.Tier, error) {
	matches, err := c.Locate(p)
	if err != nil {
		return models.TierSafe, err
	}
	if len(matches) == 0 {
		return models.TierSafe, nil
	}
	return matches[0].Tier, nil
}

func validateZone(z models.Zone) error {
	if z.ID == "" {
		return &models.ValidationError{Field: "id", Reason: "zone id is required"}
	}
	if !z.Tier.Valid() {
		return &models.ValidationError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", z.Tier)}
	}
	ring := openRing(z.Ring)
	if len(ring) < 3 {
		return &models.ValidationError{Field: "ring", Reason: "polygon needs at least 3 distinct vertices"}
	}
	for _, p := range ring {
		if !ValidPoint(p) {
			return &models.ValidationError{Field: "ring", Reason: fmt.Sprintf("vertex out of range: %v", p)}
		}
	}
	return nil
}
