package layer

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() ClusterLayerSpecification {
	s := ClusterLayerSpecification{
		ID: "stations",
		Source: Source{
			GeoFieldName: "location",
			GeoFieldType: "geo_point",
		},
	}
	ApplyDefaults(&s, 0)
	return s
}

func TestApplyDefaults(t *testing.T) {
	s := validSpec()

	assert.Equal(t, TypeCluster, s.Type)
	assert.Equal(t, "stations", s.Name)
	assert.Equal(t, [2]float64{0, 22}, s.ZoomRange)
	assert.Equal(t, 70.0, s.Opacity)
	assert.Equal(t, VisibilityVisible, s.Visibility)
	assert.Equal(t, 1000, s.Source.DocumentRequestNumber)
	assert.Equal(t, 5.0, s.Style.MarkerSize)
	assert.Equal(t, 1.0, s.Style.BorderThickness)
	assert.Regexp(t, `(?i)^#[0-9a-f]{6}$`, s.Style.FillColor)
	assert.Regexp(t, `(?i)^#[0-9a-f]{6}$`, s.Style.BorderColor)
	assert.NotEqual(t, s.Style.FillColor, s.Style.BorderColor)
	assert.NoError(t, s.Validate())
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	s := ClusterLayerSpecification{
		ID:         "roads",
		Name:       "Roads",
		ZoomRange:  [2]float64{3, 12},
		Opacity:    40,
		Visibility: VisibilityNone,
		Style: Style{
			FillColor:       "#ff0000",
			BorderColor:     "#000000",
			BorderThickness: 2,
			MarkerSize:      8,
		},
	}
	ApplyDefaults(&s, 3)

	assert.Equal(t, "Roads", s.Name)
	assert.Equal(t, [2]float64{3, 12}, s.ZoomRange)
	assert.Equal(t, 40.0, s.Opacity)
	assert.Equal(t, VisibilityNone, s.Visibility)
	assert.Equal(t, "#ff0000", s.Style.FillColor)
	assert.Equal(t, "#000000", s.Style.BorderColor)
	assert.Equal(t, 2.0, s.Style.BorderThickness)
	assert.Equal(t, 8.0, s.Style.MarkerSize)
}

func TestPaletteColorsDiffer(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		c := PaletteColor(i)
		assert.False(t, seen[c], "color %s repeated at %d", c, i)
		seen[c] = true
	}
	assert.Equal(t, "#abc", BorderColor("#abc"))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := ClusterLayerSpecification{
		ID:         "broken",
		Type:       "heatmap",
		ZoomRange:  [2]float64{10, 5},
		Opacity:    140,
		Visibility: "hidden",
		Source:     Source{GeoFieldType: "keyword", DocumentRequestNumber: -1},
		Style:      Style{FillColor: "red", BorderColor: "#12", MarkerSize: -1, BorderThickness: -2},
	}

	err := s.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		`layer "broken"`,
		`unsupported layer type "heatmap"`,
		`unsupported geo field type "keyword"`,
		"source.geoFieldName is required",
		"documentRequestNumber",
		"invalid zoom range [10, 5]",
		"opacity must be within 0..100",
		`unsupported visibility "hidden"`,
		`invalid style.fillColor "red"`,
		`invalid style.borderColor "#12"`,
		"style.borderThickness",
		"style.markerSize",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}
}

func TestValidateZoomLimits(t *testing.T) {
	s := validSpec()
	s.ZoomRange = [2]float64{0, 25}
	assert.Error(t, s.Validate())

	s.ZoomRange = [2]float64{7, 7}
	assert.NoError(t, s.Validate())
	assert.Equal(t, 7.0, s.MinZoom())
	assert.Equal(t, 7.0, s.MaxZoom())
}

func TestNewClusterMapLayer(t *testing.T) {
	props := ClusterMapLayerProps{
		Name:        "Stations",
		Description: "charging stations",
		Filter:      []interface{}{"has", "point_count"},
		Paint:       map[string]interface{}{"circle-color": "#51bbd6"},
	}
	l, err := NewClusterMapLayer(props, map[string]interface{}{
		"cluster":       true,
		"clusterRadius": 50,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(l.ID)
	assert.NoError(t, err)
	assert.Equal(t, SourceCluster, l.Type)
	assert.Equal(t, TypeCircle, l.LayerType())
	assert.False(t, l.CreatedTime.IsZero())

	assert.Equal(t, map[string]interface{}{
		"type":          "geojson",
		"cluster":       true,
		"clusterRadius": 50,
	}, l.SourceJSON())

	assert.Equal(t, map[string]interface{}{
		"id":     l.ID,
		"type":   "circle",
		"source": "stations-src",
		"filter": []interface{}{"has", "point_count"},
		"paint":  map[string]interface{}{"circle-color": "#51bbd6"},
	}, l.LayerJSON("stations-src"))
}

func TestNewClusterMapLayerRejectsForeignProperty(t *testing.T) {
	l, err := NewClusterMapLayer(ClusterMapLayerProps{Name: "x"}, map[string]interface{}{
		"tiles":   []string{"https://example.com/{z}/{x}/{y}.pbf"},
		"cluster": true,
	})
	assert.Nil(t, l)
	require.ErrorIs(t, err, ErrInvalidSourceProperty)
	assert.Contains(t, err.Error(), `"tiles"`)
}

func TestIsSourceProperty(t *testing.T) {
	assert.True(t, IsSourceProperty("vector", "promoteId"))
	assert.True(t, IsSourceProperty("raster", "tileSize"))
	assert.False(t, IsSourceProperty("raster", "cluster"))
	assert.False(t, IsSourceProperty("image", "url"))
}
