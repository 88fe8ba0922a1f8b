package scraper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mercedeshelper/internal/models"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Kraftstoffart":      "kraftstoffart",
		"  Erstzulassung:  ": "erstzulassung",
		"Fuel   Type":        "fuel type",
		"AUSSENFARBE :":      "aussenfarbe",
		"Energie\nverbrauch": "energie verbrauch",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLabelTableLookup(t *testing.T) {
	table := NewLabelTable(DefaultSelectors().Labels)

	cases := map[string]string{
		"Kraftstoffart":      models.FieldFuelType,
		"Fuel Type":          models.FieldFuelType,
		"Außenfarbe":         models.FieldExteriorColor,
		"Energy consumption": models.FieldEnergy,
		"Reichweite:":        models.FieldElectricRange,
	}
	for label, want := range cases {
		got, ok := table.Lookup(label)
		if !ok || got != want {
			t.Fatalf("Lookup(%q): expected %s, got %s (ok=%v)", label, want, got, ok)
		}
	}

	if _, ok := table.Lookup("Anzahl Türen"); ok {
		t.Fatalf("unknown labels must not resolve")
	}
}

func TestLabelTableResolvePrefersFirstSynonym(t *testing.T) {
	table := NewLabelTable([]LabelSynonyms{
		{Field: models.FieldMileage, Labels: []string{"Laufleistung", "Mileage"}},
		{Field: models.FieldPower, Labels: []string{"Leistung", "Mileage"}},
	})

	resolved := table.Resolve(map[string]string{
		"mileage":  "10 km",
		"leistung": "190 kW",
	})
	if resolved[models.FieldMileage] != "10 km" {
		t.Fatalf("expected english synonym to be used when german is absent, got %v", resolved)
	}
	if resolved[models.FieldPower] != "190 kW" {
		t.Fatalf("unexpected power: %v", resolved)
	}

	resolved = table.Resolve(map[string]string{
		"laufleistung": "20 km",
		"mileage":      "10 km",
	})
	if resolved[models.FieldMileage] != "20 km" {
		t.Fatalf("expected first synonym to win, got %v", resolved)
	}
	if _, ok := resolved[models.FieldPower]; ok {
		t.Fatalf("label claimed by mileage must not fill power: %v", resolved)
	}
}

func TestDefaultSelectorsValid(t *testing.T) {
	set := DefaultSelectors()
	if err := set.Validate(); err != nil {
		t.Fatalf("default selectors invalid: %v", err)
	}
	if set.Version != DefaultSelectorsVersion {
		t.Fatalf("unexpected version %s", set.Version)
	}
	for _, group := range models.FeatureGroups {
		if len(set.FeatureContainers[group]) == 0 {
			t.Fatalf("missing containers for %s", group)
		}
	}
}

func writeSelectorsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write selectors file: %v", err)
	}
	return path
}

func TestLoadSelectorsOverride(t *testing.T) {
	path := writeSelectorsFile(t, `
version: 2025-01-redesign
fields:
  model:
    - selector: "[data-test-id='vehicle-headline']"
    - selector: "meta[property='og:title']"
      attr: content
feature_containers:
  packages: [".dcp-packages"]
`)

	set, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors failed: %v", err)
	}

	if set.Version != "2025-01-redesign" {
		t.Fatalf("unexpected version: %s", set.Version)
	}
	model := set.Fields[models.FieldModel]
	if len(model) != 2 || model[1].Attr != "content" {
		t.Fatalf("model cascade not replaced: %+v", model)
	}
	if len(set.Fields[models.FieldPrice]) == 0 {
		t.Fatalf("price cascade should keep defaults")
	}
	if got := set.FeatureContainers[models.FeaturePackages]; len(got) != 1 || got[0] != ".dcp-packages" {
		t.Fatalf("packages containers not replaced: %v", got)
	}
	if len(set.FeatureContainers[models.FeatureInterior]) == 0 {
		t.Fatalf("interior containers should keep defaults")
	}
	if len(set.Labels) != len(DefaultSelectors().Labels) {
		t.Fatalf("labels should keep defaults")
	}
}

func TestLoadSelectorsRejectsUnknownNames(t *testing.T) {
	path := writeSelectorsFile(t, `
fields:
  horsepower:
    - selector: ".hp"
`)
	if _, err := LoadSelectors(path); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}

	path = writeSelectorsFile(t, `
feature_containers:
  comfort: [".comfort"]
`)
	if _, err := LoadSelectors(path); !errors.Is(err, ErrUnknownFeatureGroup) {
		t.Fatalf("expected ErrUnknownFeatureGroup, got %v", err)
	}

	path = writeSelectorsFile(t, `
fields:
  model:
    - selector: "  "
`)
	if _, err := LoadSelectors(path); !errors.Is(err, ErrEmptySelector) {
		t.Fatalf("expected ErrEmptySelector, got %v", err)
	}
}

func TestLoadSelectorsMissingFile(t *testing.T) {
	if _, err := LoadSelectors(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
