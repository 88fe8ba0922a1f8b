package database

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercedeshelper/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrVehicleNotFound is returned when no vehicle matches a lookup
var ErrVehicleNotFound = errors.New("vehicle not found")

type Database struct {
	db  *sql.DB
	now func() time.Time
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	database := &Database{db: db, now: time.Now}

	if err := database.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initializeSchema() error {
	if _, err := d.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

const vehicleColumns = `id, url, main_image, image_gallery, price, manufacturer, model, vehicle_number,
	vehicle_type, first_registration, model_year, mileage, power, fuel_type, transmission,
	exterior_color, interior_color, upholstery, acceleration, warranty, charging_duration,
	electric_range, energy, dealer_location, interior, exterior, infotainment, safety_tech,
	packages, created_at, updated_at`

// UpsertVehicle stores v keyed by its URL. A new row gets a fresh ID;
// an existing row is overwritten and keeps its ID and creation time.
func (d *Database) UpsertVehicle(v *models.Vehicle) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	isNew, err := upsertVehicle(tx, v, d.now().UTC())
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit vehicle: %w", err)
	}
	return isNew, nil
}

func upsertVehicle(tx *sql.Tx, v *models.Vehicle, now time.Time) (bool, error) {
	if v.URL == "" {
		return false, fmt.Errorf("vehicle url is required")
	}

	lists, err := encodeLists(v)
	if err != nil {
		return false, err
	}

	var id string
	var createdAt time.Time
	err = tx.QueryRow("SELECT id, created_at FROM vehicles WHERE url = ?", v.URL).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		createdAt = now
		_, err = tx.Exec(`INSERT INTO vehicles (`+vehicleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, v.URL, v.MainImage, lists[0], v.Price, v.Manufacturer, v.Model, v.VehicleNumber,
			v.VehicleType, v.FirstRegistration, v.ModelYear, v.Mileage, v.Power, v.FuelType, v.Transmission,
			v.ExteriorColor, v.InteriorColor, v.Upholstery, v.Acceleration, v.Warranty, v.ChargingDuration,
			v.ElectricRange, v.Energy, v.DealerLocation, lists[1], lists[2], lists[3], lists[4],
			lists[5], createdAt, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert vehicle: %w", err)
		}
		v.ID, v.CreatedAt, v.UpdatedAt = id, createdAt, now
		return true, nil

	case err != nil:
		return false, fmt.Errorf("failed to look up vehicle: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE vehicles SET
			main_image = ?, image_gallery = ?, price = ?, manufacturer = ?, model = ?,
			vehicle_number = ?, vehicle_type = ?, first_registration = ?, model_year = ?,
			mileage = ?, power = ?, fuel_type = ?, transmission = ?, exterior_color = ?,
			interior_color = ?, upholstery = ?, acceleration = ?, warranty = ?,
			charging_duration = ?, electric_range = ?, energy = ?, dealer_location = ?,
			interior = ?, exterior = ?, infotainment = ?, safety_tech = ?, packages = ?,
			updated_at = ?
		WHERE id = ?`,
		v.MainImage, lists[0], v.Price, v.Manufacturer, v.Model,
		v.VehicleNumber, v.VehicleType, v.FirstRegistration, v.ModelYear,
		v.Mileage, v.Power, v.FuelType, v.Transmission, v.ExteriorColor,
		v.InteriorColor, v.Upholstery, v.Acceleration, v.Warranty,
		v.ChargingDuration, v.ElectricRange, v.Energy, v.DealerLocation,
		lists[1], lists[2], lists[3], lists[4], lists[5],
		now, id)
	if err != nil {
		return false, fmt.Errorf("failed to update vehicle: %w", err)
	}

	v.ID, v.CreatedAt, v.UpdatedAt = id, createdAt, now
	return false, nil
}

// encodeLists returns gallery, interior, exterior, infotainment, safetyTech and packages as JSON
func encodeLists(v *models.Vehicle) ([6]string, error) {
	var out [6]string
	for i, list := range [][]string{v.ImageGallery, v.Interior, v.Exterior, v.Infotainment, v.SafetyTech, v.Packages} {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return out, fmt.Errorf("failed to encode list: %w", err)
		}
		out[i] = string(data)
	}
	return out, nil
}

func decodeList(raw string) []string {
	list := []string{}
	if raw == "" {
		return list
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var v models.Vehicle
	var gallery, interior, exterior, infotainment, safetyTech, packages string

	err := row.Scan(&v.ID, &v.URL, &v.MainImage, &gallery, &v.Price, &v.Manufacturer, &v.Model,
		&v.VehicleNumber, &v.VehicleType, &v.FirstRegistration, &v.ModelYear, &v.Mileage, &v.Power,
		&v.FuelType, &v.Transmission, &v.ExteriorColor, &v.InteriorColor, &v.Upholstery,
		&v.Acceleration, &v.Warranty, &v.ChargingDuration, &v.ElectricRange, &v.Energy,
		&v.DealerLocation, &interior, &exterior, &infotainment, &safetyTech, &packages,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	v.ImageGallery = decodeList(gallery)
	v.Interior = decodeList(interior)
	v.Exterior = decodeList(exterior)
	v.Infotainment = decodeList(infotainment)
	v.SafetyTech = decodeList(safetyTech)
	v.Packages = decodeList(packages)
	return &v, nil
}

// GetVehicleByURL retrieves the vehicle stored for a listing URL
func (d *Database) GetVehicleByURL(url string) (*models.Vehicle, error) {
	row := d.db.QueryRow("SELECT "+vehicleColumns+" FROM vehicles WHERE url = ?", url)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// GetVehicle retrieves a vehicle by ID
func (d *Database) GetVehicle(id string) (*models.Vehicle, error) {
	row := d.db.QueryRow("SELECT "+vehicleColumns+" FROM vehicles WHERE id = ?", id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// CountVehicles returns the number of stored vehicles
func (d *Database) CountVehicles() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM vehicles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// RecentVehicles returns the most recently crawled vehicles, newest first
func (d *Database) RecentVehicles(limit int) ([]models.RecentCrawl, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := d.db.Query(`
		SELECT id, model, url, updated_at
		FROM vehicles
		ORDER BY updated_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent vehicles: %w", err)
	}
	defer rows.Close()

	recent := []models.RecentCrawl{}
	for rows.Next() {
		var r models.RecentCrawl
		if err := rows.Scan(&r.ID, &r.Model, &r.URL, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		recent = append(recent, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent vehicles: %w", err)
	}
	return recent, nil
}

// AllVehicles returns every stored vehicle ordered by creation time
func (d *Database) AllVehicles() ([]*models.Vehicle, error) {
	rows, err := d.db.Query("SELECT " + vehicleColumns + " FROM vehicles ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []*models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vehicles: %w", err)
	}
	return vehicles, nil
}

// GetMetadata returns a value from the metadata table, or "" when unset
func (d *Database) GetMetadata(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM database_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores a value in the metadata table
func (d *Database) SetMetadata(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO database_metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, d.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", key, err)
	}
	return nil
}
