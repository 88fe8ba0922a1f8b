package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"mercedeshelper/internal/config"
	"mercedeshelper/internal/database"
)

// Globals are shared by every command
type Globals struct {
	Database string `help:"SQLite database path (overrides DATABASE_PATH)" type:"path"`
}

// InitCmd creates the schema
type InitCmd struct{}

// ImportCmd loads vehicles from a JSON array
type ImportCmd struct {
	File   string `arg:"" help:"JSON file with an array of vehicles" type:"existingfile"`
	Backup bool   `help:"Back up the database before importing" default:"true" negatable:""`
}

// ExportCmd writes every stored vehicle as JSON
type ExportCmd struct {
	Output string `help:"Output file, stdout when empty" short:"o" type:"path"`
}

// BackupCmd copies the database into a timestamped directory
type BackupCmd struct {
	Dir string `help:"Backup root, defaults to the database directory" type:"path"`
}

// StatusCmd prints a summary of the store
type StatusCmd struct{}

// CLI is the migrate command tree
type CLI struct {
	Globals

	Init   InitCmd   `cmd:"" help:"Initialize database with current schema"`
	Import ImportCmd `cmd:"" help:"Import vehicles from a JSON file"`
	Export ExportCmd `cmd:"" help:"Export vehicles as JSON"`
	Backup BackupCmd `cmd:"" help:"Back up the database"`
	Status StatusCmd `cmd:"" help:"Show database status"`
}

type runContext struct {
	db     *database.Database
	path   string
	logger *log.Logger
}

func (c *InitCmd) Run(rc *runContext) error {
	// NewDatabase already applied the schema
	rc.logger.Info("database initialized", "path", rc.path)
	return nil
}

func (c *ImportCmd) Run(rc *runContext) error {
	if c.Backup {
		dir, err := rc.db.BackupDatabase(filepath.Dir(rc.path))
		if err != nil {
			return err
		}
		rc.logger.Info("backup created", "dir", dir)
	}

	n, err := rc.db.ImportVehiclesFromFile(c.File)
	if err != nil {
		return err
	}
	rc.logger.Info("import complete", "file", c.File, "vehicles", n)
	return nil
}

func (c *ExportCmd) Run(rc *runContext) error {
	out := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	n, err := rc.db.ExportVehiclesJSON(out)
	if err != nil {
		return err
	}
	rc.logger.Info("export complete", "vehicles", n)
	return nil
}

func (c *BackupCmd) Run(rc *runContext) error {
	root := c.Dir
	if root == "" {
		root = filepath.Dir(rc.path)
	}
	dir, err := rc.db.BackupDatabase(root)
	if err != nil {
		return err
	}
	rc.logger.Info("backup created", "dir", dir)
	return nil
}

func (c *StatusCmd) Run(rc *runContext) error {
	status, err := rc.db.GetStatus()
	if err != nil {
		return err
	}

	fmt.Printf("Schema version: %d\n", status.SchemaVersion)
	fmt.Printf("Vehicles:       %d\n", status.Vehicles)
	if status.LastImport != "" {
		fmt.Printf("Last import:    %s\n", status.LastImport)
	}
	if stat, err := os.Stat(rc.path); err == nil {
		fmt.Printf("Database size:  %.2f KB\n", float64(stat.Size())/1024)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("migrate"),
		kong.Description("Vehicle database maintenance"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	logger := cfg.NewLogger()

	path := cfg.DatabasePath
	if cli.Database != "" {
		path = cli.Database
	}

	db, err := database.NewDatabase(path)
	if err != nil {
		logger.Fatal("failed to open database", "path", path, "err", err)
	}
	defer db.Close()

	if err := ctx.Run(&runContext{db: db, path: path, logger: logger}); err != nil {
		logger.Error("command failed", "command", ctx.Command(), "err", err)
		db.Close()
		os.Exit(1)
	}
}
