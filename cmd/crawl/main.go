package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"mercedeshelper/internal/config"
	"mercedeshelper/internal/database"
	"mercedeshelper/internal/scraper"
	"mercedeshelper/internal/validation"
)

// CLI crawls a single listing from the command line
type CLI struct {
	URL       string `help:"Listing URL to crawl" short:"u" required:""`
	Save      bool   `help:"Store the vehicle in the database" default:"false"`
	Uploads   string `help:"Directory for downloaded images (overrides UPLOADS_DIR)" type:"path"`
	Selectors string `help:"Selector table YAML (overrides SELECTORS_FILE)" type:"existingfile"`
	Debug     bool   `help:"Enable debug logging" default:"false"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("crawl"),
		kong.Description("Crawl one Mercedes-Benz used-car listing and print it as JSON."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	if cli.Debug {
		cfg.LogLevel = log.DebugLevel
	}
	if cli.Uploads != "" {
		cfg.UploadsDir = cli.Uploads
	}
	if cli.Selectors != "" {
		cfg.SelectorsFile = cli.Selectors
	}

	logger := cfg.NewLogger()
	log.SetDefault(logger)

	url, err := validation.ValidateListingURL(cli.URL, cfg.AllowedHost)
	if err != nil {
		logger.Fatal("invalid listing URL", "url", cli.URL, "err", err)
	}

	crawler, err := scraper.Setup(cfg.CrawlerSettings(), logger)
	if err != nil {
		logger.Fatal("failed to set up crawler", "err", err)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " crawling " + url
	s.Start()
	result := crawler.CrawlVehicle(url)
	s.Stop()

	if err := crawler.Close(); err != nil {
		logger.Warn("failed to close browser session", "err", err)
	}

	if result.Success && cli.Save {
		db, err := database.NewDatabase(cfg.DatabasePath)
		if err != nil {
			logger.Fatal("failed to open database", "path", cfg.DatabasePath, "err", err)
		}
		isNew, err := db.UpsertVehicle(result.Vehicle)
		db.Close()
		if err != nil {
			logger.Fatal("failed to save vehicle", "err", err)
		}
		logger.Info("vehicle saved", "id", result.Vehicle.ID, "new", isNew)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatal("failed to write result", "err", err)
	}

	if !result.Success {
		os.Exit(1)
	}
}
