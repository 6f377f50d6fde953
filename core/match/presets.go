package match

import (
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Preset names
const (
	PresetBalanced        = "balanced"
	PresetAcademicFocused = "academic_focused"
	PresetBudgetConscious = "budget_conscious"
	PresetCareerOriented  = "career_oriented"
	PresetLocationFirst   = "location_first"
	PresetSocialLife      = "social_life"

	DefaultPreset = PresetBalanced
)

type Preset struct {
	Name        string  `json:"name" yaml:"name"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
	Weights     Weights `json:"weights" yaml:"weights"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets are available even when no preset file is loaded.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		PresetBalanced: {
			Name: PresetBalanced, Label: "Balanced",
			Description: "Every category matters the same",
			Weights:     Weights{Academic: 20, Financial: 20, Location: 20, Social: 20, Future: 20},
		},
		PresetAcademicFocused: {
			Name: PresetAcademicFocused, Label: "Academic focused",
			Description: "Admission fit and academic strength first",
			Weights:     Weights{Academic: 40, Financial: 15, Location: 15, Social: 10, Future: 20},
		},
		PresetBudgetConscious: {
			Name: PresetBudgetConscious, Label: "Budget conscious",
			Description: "Net price against the family budget first",
			Weights:     Weights{Academic: 15, Financial: 45, Location: 15, Social: 10, Future: 15},
		},
		PresetCareerOriented: {
			Name: PresetCareerOriented, Label: "Career oriented",
			Description: "Graduation, earnings and employment outcomes first",
			Weights:     Weights{Academic: 20, Financial: 15, Location: 10, Social: 5, Future: 50},
		},
		PresetLocationFirst: {
			Name: PresetLocationFirst, Label: "Location first",
			Description: "Preferred states and campus setting first",
			Weights:     Weights{Academic: 15, Financial: 15, Location: 45, Social: 15, Future: 10},
		},
		PresetSocialLife: {
			Name: PresetSocialLife, Label: "Social life",
			Description: "Campus life, diversity and school size first",
			Weights:     Weights{Academic: 15, Financial: 15, Location: 15, Social: 40, Future: 15},
		},
	}
}

// ParsePresets reads presets from YAML and merges them over base; weights are normalized.
func ParsePresets(data []byte, base map[string]Preset) (map[string]Preset, error) {
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrap(err, "decoding presets")
	}

	res := make(map[string]Preset, len(base)+len(pf.Presets))
	for k, v := range base {
		res[k] = v
	}
	for _, p := range pf.Presets {
		if p.Name == "" {
			return nil, errors.New("preset without a name")
		}
		w, err := p.Weights.Normalize()
		if err != nil {
			return nil, errors.Wrapf(err, "preset %q", p.Name)
		}
		p.Weights = w
		if p.Label == "" {
			p.Label = p.Name
		}
		res[p.Name] = p
	}
	return res, nil
}

// SortedPresets lists presets with the default first, then by name.
func SortedPresets(presets map[string]Preset) []Preset {
	list := make([]Preset, 0, len(presets))
	for _, p := range presets {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if (list[i].Name == DefaultPreset) != (list[j].Name == DefaultPreset) {
			return list[i].Name == DefaultPreset
		}
		return list[i].Name < list[j].Name
	})
	return list
}
