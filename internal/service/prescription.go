package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"forestval/internal/rotation"

	"gopkg.in/yaml.v3"
)

// DefaultTemplateName is the built-in prescription that is always available.
const DefaultTemplateName = "standard"

// FillGaps reindexes a sparse prescription to one entry per year
// 0..rotationLength, inserting zero cost/revenue years where nothing is
// scheduled. Out-of-range or duplicate years are rejected.
func FillGaps(entries []rotation.Entry, rotationLength int) ([]rotation.Entry, error) {
	if rotationLength < 1 {
		return nil, fmt.Errorf("%w: rotation length must be positive, got %d", rotation.ErrInvalidInput, rotationLength)
	}

	filled := make([]rotation.Entry, rotationLength+1)
	seen := make([]bool, rotationLength+1)
	for _, e := range entries {
		if e.T < 0 || e.T > rotationLength {
			return nil, fmt.Errorf("%w: measure %q at t=%d is outside the rotation 0..%d",
				rotation.ErrInvalidInput, e.Measure, e.T, rotationLength)
		}
		if seen[e.T] {
			return nil, fmt.Errorf("%w: more than one entry for t=%d", rotation.ErrInvalidInput, e.T)
		}
		seen[e.T] = true
		filled[e.T] = e
	}
	for t := range filled {
		if !seen[t] {
			filled[t] = rotation.Entry{T: t}
		}
	}
	return filled, nil
}

// SliderBounds describes the input range an interactive host should offer.
type SliderBounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// ParameterBounds are hints for the presentation layer; the engine itself
// does not clamp to them.
type ParameterBounds struct {
	InterestRate      SliderBounds `json:"interest_rate"`
	FlatYearlyCost    SliderBounds `json:"flat_yearly_cost"`
	FlatYearlyRevenue SliderBounds `json:"flat_yearly_revenue"`
}

// DefaultBounds are the slider ranges of the interactive valuation table.
var DefaultBounds = ParameterBounds{
	InterestRate:      SliderBounds{Min: 0, Max: 10, Step: 0.1},
	FlatYearlyCost:    SliderBounds{Min: 0, Max: 1000, Step: 5},
	FlatYearlyRevenue: SliderBounds{Min: 0, Max: 1000, Step: 5},
}

// Template is a named starting prescription, already gap-filled.
type Template struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      rotation.Params  `json:"params"`
	Entries     []rotation.Entry `json:"entries"`
	Bounds      ParameterBounds  `json:"bounds"`
}

// TemplateSummary is the list view of a Template.
type TemplateSummary struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	RotationLength int    `json:"rotation_length"`
}

// templateFile is the on-disk YAML layout of a prescription template.
type templateFile struct {
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description"`
	RotationLength    int     `yaml:"rotation_length"`
	InterestRate      float64 `yaml:"interest_rate"`
	FlatYearlyCost    float64 `yaml:"flat_yearly_cost"`
	FlatYearlyRevenue float64 `yaml:"flat_yearly_revenue"`
	Measures          []struct {
		T       int     `yaml:"t"`
		Measure string  `yaml:"measure"`
		Cost    float64 `yaml:"cost"`
		Revenue float64 `yaml:"revenue"`
	} `yaml:"measures"`
}

func standardTemplate() Template {
	entries, _ := FillGaps([]rotation.Entry{
		{T: 0, Measure: "reforest", Cost: 100},
		{T: 10, Measure: "fertilization", Cost: 60},
		{T: 20, Measure: "thinning", Revenue: 200},
		{T: 40, Measure: "harvest and land sale", Revenue: 3300},
	}, 40)
	return Template{
		Name:        DefaultTemplateName,
		Description: "Reforestation, one fertilization, one thinning and a final harvest with land sale",
		Params:      rotation.Params{RotationLength: 40, InterestRate: 2.5},
		Entries:     entries,
		Bounds:      DefaultBounds,
	}
}

// ErrTemplateNotFound is returned by TemplateCatalog.Get for unknown names.
var ErrTemplateNotFound = errors.New("prescription template not found")

// TemplateCatalog holds the built-in template and any loaded from YAML files.
type TemplateCatalog struct {
	templates map[string]Template
}

// LoadTemplates reads every *.yaml / *.yml file in dir. A missing directory
// leaves only the built-in template.
func LoadTemplates(dir string) (*TemplateCatalog, error) {
	c := &TemplateCatalog{templates: map[string]Template{DefaultTemplateName: standardTemplate()}}
	if dir == "" {
		return c, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read template dir: %w", err)
	}

	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", f.Name(), err)
		}
		tpl, err := ParseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", f.Name(), err)
		}
		if tpl.Name == "" {
			tpl.Name = strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		}
		c.templates[tpl.Name] = tpl
	}

	return c, nil
}

// ParseTemplate decodes and gap-fills one YAML template.
func ParseTemplate(data []byte) (Template, error) {
	var raw templateFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Template{}, fmt.Errorf("invalid template yaml: %w", err)
	}

	measures := make([]rotation.Entry, 0, len(raw.Measures))
	for _, m := range raw.Measures {
		measures = append(measures, rotation.Entry{T: m.T, Measure: m.Measure, Cost: m.Cost, Revenue: m.Revenue})
	}
	entries, err := FillGaps(measures, raw.RotationLength)
	if err != nil {
		return Template{}, err
	}

	return Template{
		Name:        raw.Name,
		Description: raw.Description,
		Params: rotation.Params{
			RotationLength:    raw.RotationLength,
			InterestRate:      raw.InterestRate,
			FlatYearlyCost:    raw.FlatYearlyCost,
			FlatYearlyRevenue: raw.FlatYearlyRevenue,
		},
		Entries: entries,
		Bounds:  DefaultBounds,
	}, nil
}

// List returns template summaries sorted by name.
func (c *TemplateCatalog) List() []TemplateSummary {
	res := make([]TemplateSummary, 0, len(c.templates))
	for _, t := range c.templates {
		res = append(res, TemplateSummary{Name: t.Name, Description: t.Description, RotationLength: t.Params.RotationLength})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Get returns a copy of the named template.
func (c *TemplateCatalog) Get(name string) (Template, error) {
	t, ok := c.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	t.Entries = append([]rotation.Entry(nil), t.Entries...)
	return t, nil
}
