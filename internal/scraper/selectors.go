package scraper

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"mercedeshelper/internal/models"
)

// DefaultSelectorsVersion identifies the built-in selector table
const DefaultSelectorsVersion = "2024-06-gebrauchtwagen"

var (
	ErrUnknownField        = errors.New("unknown extraction field")
	ErrUnknownFeatureGroup = errors.New("unknown feature group")
	ErrEmptySelector       = errors.New("selector must not be empty")
)

// Candidate is one lookup strategy in a selector cascade.
// An empty Attr reads the element text.
type Candidate struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
}

// LabelSynonyms maps the spec-block labels that mean the same field.
// Earlier labels take precedence when several are present on a page.
type LabelSynonyms struct {
	Field  string   `yaml:"field"`
	Labels []string `yaml:"labels"`
}

// SelectorSet is the data-driven extraction program for one page template family
type SelectorSet struct {
	Version           string                 `yaml:"version"`
	Fields            map[string][]Candidate `yaml:"fields"`
	SpecBlocks        []string               `yaml:"spec_blocks"`
	SpecLabels        []string               `yaml:"spec_labels"`
	SpecValues        []string               `yaml:"spec_values"`
	Labels            []LabelSynonyms        `yaml:"labels"`
	Images            []string               `yaml:"images"`
	ImageExclusions   []string               `yaml:"image_exclusions"`
	MainImage         []Candidate            `yaml:"main_image"`
	FeatureContainers map[string][]string    `yaml:"feature_containers"`
	FeatureItems      []string               `yaml:"feature_items"`
}

func textCandidates(selectors ...string) []Candidate {
	candidates := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		candidates = append(candidates, Candidate{Selector: s})
	}
	return candidates
}

func srcCandidates(selectors ...string) []Candidate {
	candidates := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		candidates = append(candidates, Candidate{Selector: s, Attr: "src"})
	}
	return candidates
}

// DefaultSelectors returns the built-in table for gebrauchtwagen.mercedes-benz.de
func DefaultSelectors() *SelectorSet {
	return &SelectorSet{
		Version: DefaultSelectorsVersion,
		Fields: map[string][]Candidate{
			models.FieldModel:          textCandidates("h1.vehicle-title", ".vehicle-name", ".title-vehicle"),
			models.FieldPrice:          textCandidates(".price-value", ".vehicle-price", ".price"),
			models.FieldVehicleNumber:  textCandidates(".vehicle-id", ".stock-number", ".fahrzeugnummer"),
			models.FieldDealerLocation: textCandidates(".dealer-location", ".standort", ".location"),
		},
		SpecBlocks: []string{".spec-item", ".vehicle-spec", ".specification-item"},
		SpecLabels: []string{".spec-label", ".label"},
		SpecValues: []string{".spec-value", ".value"},
		Labels: []LabelSynonyms{
			{Field: models.FieldVehicleType, Labels: []string{"fahrzeugart", "vehicle type"}},
			{Field: models.FieldFirstRegistration, Labels: []string{"erstzulassung", "first registration"}},
			{Field: models.FieldModelYear, Labels: []string{"modelljahr", "model year"}},
			{Field: models.FieldMileage, Labels: []string{"laufleistung", "kilometerstand", "mileage"}},
			{Field: models.FieldPower, Labels: []string{"leistung", "power"}},
			{Field: models.FieldFuelType, Labels: []string{"kraftstoffart", "kraftstoff", "fuel type"}},
			{Field: models.FieldTransmission, Labels: []string{"getriebe", "transmission"}},
			{Field: models.FieldExteriorColor, Labels: []string{"außenfarbe", "aussenfarbe", "exterior color"}},
			{Field: models.FieldInteriorColor, Labels: []string{"innenfarbe", "interior color"}},
			{Field: models.FieldUpholstery, Labels: []string{"polster", "upholstery"}},
			{Field: models.FieldAcceleration, Labels: []string{"beschleunigung", "acceleration"}},
			{Field: models.FieldWarranty, Labels: []string{"garantie", "warranty"}},
			{Field: models.FieldChargingDuration, Labels: []string{"ladezeit", "charging time"}},
			{Field: models.FieldElectricRange, Labels: []string{"reichweite", "range"}},
			{Field: models.FieldEnergy, Labels: []string{"energieverbrauch", "energy consumption"}},
		},
		Images: []string{
			`img[src*="vehicle"]`,
			`img[src*="mercedes"]`,
			".gallery img",
			".vehicle-images img",
		},
		ImageExclusions: []string{"placeholder", "loading"},
		MainImage:       srcCandidates(".main-image img", ".hero-image img", ".primary-image img"),
		FeatureContainers: map[string][]string{
			models.FeatureInterior:     {".interior-features", ".interieur"},
			models.FeatureExterior:     {".exterior-features", ".exterieur"},
			models.FeatureInfotainment: {".infotainment-features", ".infotainment"},
			models.FeatureSafetyTech:   {".safety-features", ".sicherheit"},
			models.FeaturePackages:     {".package-features", ".pakete"},
		},
		FeatureItems: []string{"li", ".feature-item", ".equipment-item"},
	}
}

// LoadSelectors reads a YAML file and layers it over the defaults.
// Sections present in the file replace the default section; field cascades
// and feature containers are replaced per key.
func LoadSelectors(path string) (*SelectorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selectors file: %w", err)
	}

	var override SelectorSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse selectors file: %w", err)
	}

	set := DefaultSelectors()
	set.merge(&override)

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SelectorSet) merge(o *SelectorSet) {
	if o.Version != "" {
		s.Version = o.Version
	}
	for field, candidates := range o.Fields {
		s.Fields[field] = candidates
	}
	if len(o.SpecBlocks) > 0 {
		s.SpecBlocks = o.SpecBlocks
	}
	if len(o.SpecLabels) > 0 {
		s.SpecLabels = o.SpecLabels
	}
	if len(o.SpecValues) > 0 {
		s.SpecValues = o.SpecValues
	}
	if len(o.Labels) > 0 {
		s.Labels = o.Labels
	}
	if len(o.Images) > 0 {
		s.Images = o.Images
	}
	if len(o.ImageExclusions) > 0 {
		s.ImageExclusions = o.ImageExclusions
	}
	if len(o.MainImage) > 0 {
		s.MainImage = o.MainImage
	}
	for group, containers := range o.FeatureContainers {
		s.FeatureContainers[group] = containers
	}
	if len(o.FeatureItems) > 0 {
		s.FeatureItems = o.FeatureItems
	}
}

// Validate checks that every referenced field and feature group exists
func (s *SelectorSet) Validate() error {
	for field, candidates := range s.Fields {
		if !models.IsScalarField(field) {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		for _, c := range candidates {
			if strings.TrimSpace(c.Selector) == "" {
				return fmt.Errorf("%w: field %s", ErrEmptySelector, field)
			}
		}
	}
	for _, syn := range s.Labels {
		if !models.IsScalarField(syn.Field) {
			return fmt.Errorf("%w: %s", ErrUnknownField, syn.Field)
		}
	}
	for group := range s.FeatureContainers {
		if !models.IsFeatureGroup(group) {
			return fmt.Errorf("%w: %s", ErrUnknownFeatureGroup, group)
		}
	}
	return nil
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeLabel lower-cases a spec label, collapses whitespace and drops a trailing colon
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
	return whitespaceRegex.ReplaceAllString(label, " ")
}

// LabelTable resolves normalized spec labels to canonical field names
type LabelTable struct {
	byLabel map[string]string
	byField []LabelSynonyms
}

// NewLabelTable indexes the synonym list. A label listed for two fields
// resolves to the first one.
func NewLabelTable(synonyms []LabelSynonyms) *LabelTable {
	t := &LabelTable{byLabel: make(map[string]string)}
	for _, syn := range synonyms {
		normalized := LabelSynonyms{Field: syn.Field}
		for _, label := range syn.Labels {
			key := NormalizeLabel(label)
			if key == "" {
				continue
			}
			if _, exists := t.byLabel[key]; !exists {
				t.byLabel[key] = syn.Field
			}
			normalized.Labels = append(normalized.Labels, key)
		}
		t.byField = append(t.byField, normalized)
	}
	return t
}

// Lookup returns the field a raw label maps to
func (t *LabelTable) Lookup(label string) (string, bool) {
	field, ok := t.byLabel[NormalizeLabel(label)]
	return field, ok
}

// Resolve picks field values from collected spec pairs (keyed by normalized
// label). For each field the first synonym present wins.
func (t *LabelTable) Resolve(specs map[string]string) map[string]string {
	resolved := make(map[string]string)
	for _, syn := range t.byField {
		if _, done := resolved[syn.Field]; done {
			continue
		}
		for _, label := range syn.Labels {
			if t.byLabel[label] != syn.Field {
				continue
			}
			if value, ok := specs[label]; ok && value != "" {
				resolved[syn.Field] = value
				break
			}
		}
	}
	return resolved
}
