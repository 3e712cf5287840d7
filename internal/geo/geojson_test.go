package geo

import (
	"encoding/json"
	"testing"

	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "old-town",
      "properties": {"name": "Old Town", "tier": "danger"},
      "geometry": {"type": "Polygon", "coordinates": [[[92.90, 26.18], [92.95, 26.18], [92.95, 26.22], [92.90, 26.22], [92.90, 26.18]]]}
    },
    {
      "type": "Feature",
      "properties": {"id": "riverside", "tier": "caution"},
      "geometry": {"type": "Polygon", "coordinates": [[[92.80, 26.10], [92.85, 26.10], [92.85, 26.15], [92.80, 26.10]]]}
    }
  ]
}`

func TestZonesFromFeatureCollection(t *testing.T) {
	zones, err := ZonesFromFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, "old-town", zones[0].ID)
	assert.Equal(t, "Old Town", zones[0].Name)
	assert.Equal(t, models.TierDanger, zones[0].Tier)
	assert.Equal(t, models.Point{Lat: 26.18, Lng: 92.90}, zones[0].Ring[0])

	assert.Equal(t, "riverside", zones[1].ID)
	assert.Equal(t, "riverside", zones[1].Name)
	assert.Equal(t, models.TierCaution, zones[1].Tier)

	c := NewCatalog()
	require.NoError(t, c.Load(zones))
	tier, err := c.HighestTier(models.Point{Lat: 26.2006, Lng: 92.9376})
	require.NoError(t, err)
	assert.Equal(t, models.TierDanger, tier)
}

func TestZonesFromFeatureCollection_RejectsPoint(t *testing.T) {
	_, err := ZonesFromFeatureCollection([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","id":"p","properties":{"tier":"safe"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`))
	require.Error(t, err)

	_, err = ZonesFromFeatureCollection([]byte(`not json`))
	require.Error(t, err)
}

func TestZonesFromFeatureCollection_RejectsHoles(t *testing.T) {
	withHole := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"ring","properties":{"tier":"danger"},
	  "geometry":{"type":"Polygon","coordinates":[
	    [[0,0],[10,0],[10,10],[0,10],[0,0]],
	    [[4,4],[6,4],[6,6],[4,6],[4,4]]]}}]}`

	_, err := ZonesFromFeatureCollection([]byte(withHole))

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "holes")
}

func TestZonesFromFeatureCollection_NumericIDs(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":1234567,"properties":{"tier":"caution"},
	   "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
	  {"type":"Feature","properties":{"id":42,"tier":"safe"},
	   "geometry":{"type":"Polygon","coordinates":[[[2,2],[3,2],[3,3],[2,2]]]}}]}`

	zones, err := ZonesFromFeatureCollection([]byte(data))

	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "1234567", zones[0].ID)
	assert.Equal(t, "42", zones[1].ID)
}

func TestZonesToFeatureCollection_RoundTrip(t *testing.T) {
	zone := square("z", models.TierCaution, 1, 2, 3, 4)
	zone.Ring = zone.Ring[:4] // незамкнутое кольцо замыкается при выдаче

	data, err := json.Marshal(ZonesToFeatureCollection([]models.Zone{zone}))
	require.NoError(t, err)

	zones, err := ZonesFromFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "z", zones[0].ID)
	assert.Equal(t, models.TierCaution, zones[0].Tier)
	assert.Len(t, zones[0].Ring, 5)
	assert.Equal(t, zones[0].Ring[0], zones[0].Ring[4])
}
