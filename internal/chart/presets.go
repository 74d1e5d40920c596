package chart

import (
	"fmt"
	"strings"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// PresetInfo describes one named colour rule.
type PresetInfo struct {
	Name          string            `json:"name"`
	Bands         []segment.HueBand `json:"bands"`
	MinSaturation float64           `json:"min_saturation"`
	MinValue      float64           `json:"min_value"`
}

// Presets describes every colour preset, alphabetically. Bands is empty,
// never nil, for "any".
func Presets() []PresetInfo {
	names := segment.PresetNames()
	out := make([]PresetInfo, 0, len(names))
	for _, n := range names {
		rule, _ := segment.Preset(n)
		bands := rule.Bands
		if bands == nil {
			bands = []segment.HueBand{}
		}
		out = append(out, PresetInfo{
			Name:          n,
			Bands:         bands,
			MinSaturation: rule.MinSaturation,
			MinValue:      rule.MinValue,
		})
	}
	return out
}

// WithPreset returns base with its hue bands replaced by the named preset.
// The saturation and value floors of base are kept. An empty name returns
// base unchanged.
func WithPreset(base segment.ColorRule, name string) (segment.ColorRule, error) {
	if name == "" {
		return base, nil
	}
	p, ok := segment.Preset(name)
	if !ok {
		return base, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(segment.PresetNames(), ", "))
	}
	p.MinSaturation, p.MinValue = base.MinSaturation, base.MinValue
	return p, nil
}
