package layer

import (
	"math"

	"github.com/hsluv/hsluv-go"
)

// Defaults applied to unset layer values.
const (
	DefaultMinZoom               = 0
	DefaultMaxZoom               = 22
	DefaultOpacity               = 70
	DefaultMarkerSize            = 5
	DefaultBorderThickness       = 1
	DefaultDocumentRequestNumber = 1000
)

const (
	paletteSaturation = 75
	paletteLightness  = 60
	borderDarkening   = 0.6
	goldenAngle       = 137.508
)

// ApplyDefaults fills unset values of the specification. index is the position
// of the layer in its configuration and selects the palette color, so layers
// without explicit colors stay distinguishable. A zero opacity counts as unset.
func ApplyDefaults(s *ClusterLayerSpecification, index int) {
	if s.Type == "" {
		s.Type = TypeCluster
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.ZoomRange == [2]float64{} {
		s.ZoomRange = [2]float64{DefaultMinZoom, DefaultMaxZoom}
	}
	if s.Opacity == 0 {
		s.Opacity = DefaultOpacity
	}
	if s.Visibility == "" {
		s.Visibility = VisibilityVisible
	}
	if s.Source.DocumentRequestNumber == 0 {
		s.Source.DocumentRequestNumber = DefaultDocumentRequestNumber
	}
	if s.Style.MarkerSize == 0 {
		s.Style.MarkerSize = DefaultMarkerSize
	}
	if s.Style.BorderThickness == 0 {
		s.Style.BorderThickness = DefaultBorderThickness
	}
	if s.Style.FillColor == "" {
		s.Style.FillColor = PaletteColor(index)
	}
	if s.Style.BorderColor == "" {
		s.Style.BorderColor = BorderColor(s.Style.FillColor)
	}
}

// PaletteColor returns the n-th color of an evenly spread, perceptually
// uniform palette.
func PaletteColor(n int) string {
	hue := math.Mod(float64(n)*goldenAngle, 360)
	return hsluv.HsluvToHex(hue, paletteSaturation, paletteLightness)
}

// BorderColor returns a darker shade of a #rrggbb fill color. Other notations
// are returned unchanged.
func BorderColor(fill string) string {
	if len(fill) != 7 || !colorRegex.MatchString(fill) {
		return fill
	}
	h, s, l := hsluv.HsluvFromHex(fill)
	return hsluv.HsluvToHex(h, s, l*borderDarkening)
}
