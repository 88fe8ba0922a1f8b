package database

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mercedeshelper/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// stepClock returns a clock that advances one second per call
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func sampleVehicle(url string) *models.Vehicle {
	return &models.Vehicle{
		URL:               url,
		MainImage:         "/uploads/vehicle_1_aaaaaaaaa.jpg",
		ImageGallery:      []string{"/uploads/vehicle_1_bbbbbbbbb.jpg", "/uploads/vehicle_1_ccccccccc.jpg"},
		Price:             54990,
		Manufacturer:      models.DefaultManufacturer,
		Model:             "GLC 300",
		VehicleNumber:     "FZ-0815",
		FirstRegistration: "03/2022",
		ModelYear:         2022,
		Mileage:           23500,
		FuelType:          "Benzin",
		Transmission:      "9G-TRONIC",
		DealerLocation:    "Hildesheim",
		Interior:          []string{"Sitzheizung vorn"},
		Exterior:          []string{},
		Infotainment:      []string{},
		SafetyTech:        nil,
		Packages:          []string{"AMG Line"},
	}
}

func TestUpsertVehicleInsertThenUpdate(t *testing.T) {
	db := newTestDatabase(t)
	db.now = stepClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	v := sampleVehicle("https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/1")
	isNew, err := db.UpsertVehicle(v)
	if err != nil {
		t.Fatalf("UpsertVehicle failed: %v", err)
	}
	if !isNew {
		t.Fatalf("expected first upsert to insert")
	}
	if v.ID == "" {
		t.Fatalf("expected ID to be assigned")
	}
	firstID, created := v.ID, v.CreatedAt

	updated := sampleVehicle(v.URL)
	updated.Price = 51990
	updated.Mileage = 24000
	isNew, err = db.UpsertVehicle(updated)
	if err != nil {
		t.Fatalf("second UpsertVehicle failed: %v", err)
	}
	if isNew {
		t.Fatalf("expected second upsert to update")
	}
	if updated.ID != firstID {
		t.Fatalf("update must keep the ID: %s vs %s", updated.ID, firstID)
	}

	stored, err := db.GetVehicleByURL(v.URL)
	if err != nil {
		t.Fatalf("GetVehicleByURL failed: %v", err)
	}
	if stored.Price != 51990 || stored.Mileage != 24000 {
		t.Fatalf("update not persisted: %+v", stored)
	}
	if !stored.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed: %v vs %v", stored.CreatedAt, created)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("expected updated_at after created_at: %v %v", stored.UpdatedAt, stored.CreatedAt)
	}

	count, err := db.CountVehicles()
	if err != nil || count != 1 {
		t.Fatalf("expected 1 vehicle, got %d (err=%v)", count, err)
	}
}

func TestVehicleListsRoundTrip(t *testing.T) {
	db := newTestDatabase(t)

	v := sampleVehicle("https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/2")
	if _, err := db.UpsertVehicle(v); err != nil {
		t.Fatalf("UpsertVehicle failed: %v", err)
	}

	stored, err := db.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("GetVehicle failed: %v", err)
	}
	if !reflect.DeepEqual(stored.ImageGallery, v.ImageGallery) {
		t.Fatalf("gallery mismatch: %v", stored.ImageGallery)
	}
	if !reflect.DeepEqual(stored.Packages, []string{"AMG Line"}) {
		t.Fatalf("packages mismatch: %v", stored.Packages)
	}
	if stored.SafetyTech == nil || len(stored.SafetyTech) != 0 {
		t.Fatalf("nil list should load as empty list, got %v", stored.SafetyTech)
	}
	if stored.Model != "GLC 300" || stored.FuelType != "Benzin" || stored.ModelYear != 2022 {
		t.Fatalf("scalar fields mismatch: %+v", stored)
	}
}

func TestGetVehicleNotFound(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.GetVehicleByURL("https://example.com/none"); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
	if _, err := db.GetVehicle("missing"); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestUpsertVehicleRequiresURL(t *testing.T) {
	db := newTestDatabase(t)
	if _, err := db.UpsertVehicle(&models.Vehicle{Model: "A 180"}); err == nil {
		t.Fatalf("expected error for vehicle without url")
	}
}

func TestRecentVehiclesNewestFirst(t *testing.T) {
	db := newTestDatabase(t)
	db.now = stepClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	for i, model := range []string{"A 180", "B 200", "C 300", "E 220", "GLA 250", "S 500"} {
		v := sampleVehicle("https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/" + string(rune('a'+i)))
		v.Model = model
		if _, err := db.UpsertVehicle(v); err != nil {
			t.Fatalf("UpsertVehicle failed: %v", err)
		}
	}

	// touching the first vehicle moves it to the top
	first := sampleVehicle("https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/a")
	first.Model = "A 180"
	if _, err := db.UpsertVehicle(first); err != nil {
		t.Fatalf("UpsertVehicle failed: %v", err)
	}

	recent, err := db.RecentVehicles(5)
	if err != nil {
		t.Fatalf("RecentVehicles failed: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent vehicles, got %d", len(recent))
	}

	want := []string{"A 180", "S 500", "GLA 250", "E 220", "C 300"}
	for i, r := range recent {
		if r.Model != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], r.Model)
		}
	}
}

func TestRecentVehiclesEmpty(t *testing.T) {
	db := newTestDatabase(t)
	recent, err := db.RecentVehicles(5)
	if err != nil {
		t.Fatalf("RecentVehicles failed: %v", err)
	}
	if recent == nil || len(recent) != 0 {
		t.Fatalf("expected empty list, got %v", recent)
	}
}

func TestMetadata(t *testing.T) {
	db := newTestDatabase(t)

	if version, err := db.GetMetadata("schema_version"); err != nil || version != "1" {
		t.Fatalf("expected schema version 1, got %q (err=%v)", version, err)
	}
	if value, err := db.GetMetadata("unknown"); err != nil || value != "" {
		t.Fatalf("expected empty value for unknown key, got %q (err=%v)", value, err)
	}

	if err := db.SetMetadata("note", "first"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := db.SetMetadata("note", "second"); err != nil {
		t.Fatalf("SetMetadata overwrite failed: %v", err)
	}
	if value, _ := db.GetMetadata("note"); value != "second" {
		t.Fatalf("expected overwritten value, got %q", value)
	}
}

func TestNewDatabaseReopensExistingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	if _, err := db.UpsertVehicle(sampleVehicle("https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/x")); err != nil {
		t.Fatalf("UpsertVehicle failed: %v", err)
	}
	db.Close()

	db, err = NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	if count, _ := db.CountVehicles(); count != 1 {
		t.Fatalf("expected data to survive reopen, got %d rows", count)
	}
}
