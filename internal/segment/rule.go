package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Default selection floors, expressed on the 0-255 scale used by the chart
// scanner and converted to [0,1].
const (
	DefaultMinSaturation = 60.0 / 255.0
	DefaultMinValue      = 50.0 / 255.0
)

// HueBand is an inclusive hue interval in degrees.
//
// When Low > High the band wraps through 0°, so {Low: 340, High: 20}
// accepts 350° and 10° but not 180°.
type HueBand struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Contains reports whether hue (degrees, any range) falls in the band.
func (b HueBand) Contains(hue float64) bool {
	h := normalizeHue(hue)
	lo := normalizeHue(b.Low)
	hi := b.High
	if hi != 360 {
		hi = normalizeHue(hi)
	}
	if lo <= hi {
		return h >= lo && h <= hi
	}
	return h >= lo || h <= hi
}

// ColorRule selects boundary-coloured pixels.
type ColorRule struct {
	// Bands restricts the accepted hues. Empty means any hue.
	Bands []HueBand `json:"bands,omitempty" yaml:"bands,omitempty"`

	// MinSaturation is the saturation floor in [0,1]; rejects grey ink.
	MinSaturation float64 `json:"min_saturation" yaml:"minSaturation"`

	// MinValue is the brightness floor in [0,1]; rejects black ink.
	MinValue float64 `json:"min_value" yaml:"minValue"`
}

// DefaultColorRule accepts any saturated colour.
func DefaultColorRule() ColorRule {
	return ColorRule{
		MinSaturation: DefaultMinSaturation,
		MinValue:      DefaultMinValue,
	}
}

// Match applies the rule to an HSV triple.
func (r ColorRule) Match(h, s, v float64) bool {
	if s < r.MinSaturation || v < r.MinValue {
		return false
	}
	if len(r.Bands) == 0 {
		return true
	}
	for _, b := range r.Bands {
		if b.Contains(h) {
			return true
		}
	}
	return false
}

// Validate checks that floors and bands are within range.
func (r ColorRule) Validate() error {
	if r.MinSaturation < 0 || r.MinSaturation > 1 {
		return fmt.Errorf("min saturation %.3f outside [0,1]", r.MinSaturation)
	}
	if r.MinValue < 0 || r.MinValue > 1 {
		return fmt.Errorf("min value %.3f outside [0,1]", r.MinValue)
	}
	for i, b := range r.Bands {
		if b.Low < 0 || b.Low > 360 || b.High < 0 || b.High > 360 {
			return fmt.Errorf("hue band %d (%.1f-%.1f) outside [0,360]", i, b.Low, b.High)
		}
	}
	return nil
}

var presets = map[string][]HueBand{
	"any":    nil,
	"red":    {{Low: 340, High: 20}},
	"orange": {{Low: 15, High: 45}},
	"yellow": {{Low: 45, High: 70}},
	"green":  {{Low: 70, High: 170}},
	"blue":   {{Low: 190, High: 260}},
	"violet": {{Low: 260, High: 320}},
}

// Preset returns a named colour rule with the default floors.
// Names are case-insensitive.
func Preset(name string) (ColorRule, bool) {
	bands, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ColorRule{}, false
	}
	rule := DefaultColorRule()
	if bands != nil {
		rule.Bands = append([]HueBand(nil), bands...)
	}
	return rule, true
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
