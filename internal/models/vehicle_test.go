package models

import (
	"encoding/json"
	"testing"
)

func TestRawExtractionDefaults(t *testing.T) {
	var nilRaw *RawExtraction
	if got := nilRaw.Get(FieldModel); got != "" {
		t.Fatalf("expected empty value from nil extraction, got %q", got)
	}
	if got := nilRaw.FeatureList(FeatureInterior); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", got)
	}

	raw := NewRawExtraction()
	raw.Fields[FieldModel] = "GLC 300"
	raw.Features[FeaturePackages] = []string{"AMG Line"}

	if raw.Get(FieldModel) != "GLC 300" {
		t.Fatalf("unexpected model: %q", raw.Get(FieldModel))
	}
	if raw.Get(FieldPower) != "" {
		t.Fatalf("expected missing field to be empty")
	}
	if len(raw.FeatureList(FeaturePackages)) != 1 {
		t.Fatalf("expected one package, got %v", raw.FeatureList(FeaturePackages))
	}
	if raw.FeatureList(FeatureExterior) == nil {
		t.Fatalf("expected missing feature group to be an empty slice")
	}
}

func TestFieldNameTables(t *testing.T) {
	for _, f := range ScalarFields {
		if !IsScalarField(f) {
			t.Fatalf("expected %s to be a scalar field", f)
		}
		if IsFeatureGroup(f) {
			t.Fatalf("%s must not be a feature group", f)
		}
	}
	for _, g := range FeatureGroups {
		if !IsFeatureGroup(g) {
			t.Fatalf("expected %s to be a feature group", g)
		}
	}
	if IsScalarField("images") {
		t.Fatalf("images is not a scalar field")
	}
}

func TestCrawlStateString(t *testing.T) {
	cases := map[CrawlState]string{
		CrawlIdle:       "idle",
		CrawlInProgress: "in_progress",
		CrawlSucceeded:  "success",
		CrawlFailed:     "failed",
		CrawlState(42):  "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("state %d: expected %q, got %q", state, want, got)
		}
	}
}

func TestCrawlResultJSON(t *testing.T) {
	failed := CrawlResult{Success: false, Error: "navigation timed out"}
	data, err := json.Marshal(failed)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["vehicle"]; ok {
		t.Fatalf("failed result must not carry a vehicle: %s", data)
	}
	if decoded["error"] != "navigation timed out" {
		t.Fatalf("unexpected error field: %v", decoded["error"])
	}
}

func TestVehicleCloneIsIndependent(t *testing.T) {
	original := &Vehicle{
		URL:          "https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/1",
		Model:        "GLC 300",
		ImageGallery: []string{"/uploads/a.jpg"},
		Interior:     []string{"Sitzheizung"},
		Packages:     []string{},
	}

	clone := original.Clone()
	clone.URL = "changed"
	clone.ImageGallery[0] = "changed"
	clone.Interior = append(clone.Interior, "Head-up-Display")

	if original.URL != "https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/1" {
		t.Fatalf("clone shares fields with original: %s", original.URL)
	}
	if original.ImageGallery[0] != "/uploads/a.jpg" || len(original.Interior) != 1 {
		t.Fatalf("clone shares lists with original: %+v", original)
	}
	if clone.Packages == nil || len(clone.Packages) != 0 {
		t.Fatalf("empty list must stay empty and non-nil, got %v", clone.Packages)
	}
	if clone.Exterior != nil {
		t.Fatalf("nil list must stay nil, got %v", clone.Exterior)
	}

	var missing *Vehicle
	if missing.Clone() != nil {
		t.Fatalf("clone of nil must be nil")
	}
}
