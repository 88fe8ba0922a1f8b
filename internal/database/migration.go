package database

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mercedeshelper/internal/models"
)

const (
	metaSchemaVersion = "schema_version"
	metaLastImport    = "last_import"
)

// ImportVehiclesFromJSON loads a JSON array of vehicles (the format the crawl
// API returns) and upserts them by URL in one transaction. Entries without a
// URL are skipped. It returns the number of vehicles imported.
func (d *Database) ImportVehiclesFromJSON(r io.Reader) (int, error) {
	var vehicles []*models.Vehicle
	if err := json.NewDecoder(r).Decode(&vehicles); err != nil {
		return 0, fmt.Errorf("failed to decode vehicles JSON: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := d.now().UTC()
	imported := 0
	for _, v := range vehicles {
		if v == nil || v.URL == "" {
			continue
		}
		if v.Manufacturer == "" {
			v.Manufacturer = models.DefaultManufacturer
		}
		if _, err := upsertVehicle(tx, v, now); err != nil {
			return 0, fmt.Errorf("failed to import %s: %w", v.URL, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := d.SetMetadata(metaLastImport, now.Format(time.RFC3339)); err != nil {
		return imported, err
	}
	return imported, nil
}

// ImportVehiclesFromFile is ImportVehiclesFromJSON for a file on disk
func (d *Database) ImportVehiclesFromFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open vehicles file: %w", err)
	}
	defer file.Close()

	return d.ImportVehiclesFromJSON(file)
}

// ExportVehiclesJSON writes every stored vehicle as an indented JSON array
func (d *Database) ExportVehiclesJSON(w io.Writer) (int, error) {
	vehicles, err := d.AllVehicles()
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vehicles); err != nil {
		return 0, fmt.Errorf("failed to encode vehicles: %w", err)
	}
	return len(vehicles), nil
}

// BackupDatabase writes a consistent copy of the database into dataDir and
// returns the path of the backup file.
func (d *Database) BackupDatabase(dataDir string) (string, error) {
	backupDir := filepath.Join(dataDir, fmt.Sprintf("backup_%d", d.now().Unix()))
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(backupDir, "vehicles.db")
	if _, err := d.db.Exec("VACUUM INTO ?", target); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return target, nil
}

// Status summarizes the store for the migrate tool
type Status struct {
	SchemaVersion int
	Vehicles      int
	LastImport    string
}

// GetStatus reports schema version, row count and the last import time
func (d *Database) GetStatus() (*Status, error) {
	version, err := d.GetMetadata(metaSchemaVersion)
	if err != nil {
		return nil, err
	}
	schemaVersion, _ := strconv.Atoi(version)

	count, err := d.CountVehicles()
	if err != nil {
		return nil, err
	}

	lastImport, err := d.GetMetadata(metaLastImport)
	if err != nil {
		return nil, err
	}

	return &Status{SchemaVersion: schemaVersion, Vehicles: count, LastImport: lastImport}, nil
}
