package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"mercedeshelper/internal/database"
	"mercedeshelper/internal/models"
	"mercedeshelper/internal/util"
	"mercedeshelper/internal/validation"
)

const recentCrawlsLimit = 5

// VehicleCrawler is the crawl pipeline the handler drives
type VehicleCrawler interface {
	CrawlVehicle(url string) models.CrawlResult
	InFlight() []models.CrawlStatus
	Outcomes() []models.CrawlStatus
	State(url string) models.CrawlStatus
}

// VehicleStore persists crawled vehicles keyed by URL
type VehicleStore interface {
	UpsertVehicle(v *models.Vehicle) (bool, error)
	GetVehicle(id string) (*models.Vehicle, error)
	GetVehicleByURL(url string) (*models.Vehicle, error)
	CountVehicles() (int, error)
	RecentVehicles(limit int) ([]models.RecentCrawl, error)
}

type CrawlerHandler struct {
	crawler     VehicleCrawler
	store       VehicleStore
	allowedHost string
	log         *log.Logger
}

func NewCrawlerHandler(crawler VehicleCrawler, store VehicleStore, allowedHost string, logger *log.Logger) *CrawlerHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &CrawlerHandler{
		crawler:     crawler,
		store:       store,
		allowedHost: allowedHost,
		log:         logger,
	}
}

type CrawlRequest struct {
	URL string `json:"url" example:"https://gebrauchtwagen.mercedes-benz.de/fahrzeuge/123"`
}

type CrawlResponse struct {
	Message string          `json:"message"`
	Vehicle *models.Vehicle `json:"vehicle"`
	IsNew   bool            `json:"isNew"`
}

type StatusResponse struct {
	TotalVehicles  int                  `json:"totalVehicles"`
	RecentCrawls   []models.RecentCrawl `json:"recentCrawls"`
	InFlight       []models.CrawlStatus `json:"inFlight"`
	RecentOutcomes []models.CrawlStatus `json:"recentOutcomes"`
}

type VehicleResponse struct {
	Vehicle *models.Vehicle    `json:"vehicle"`
	Crawl   models.CrawlStatus `json:"crawl"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Crawl godoc
// @Summary Crawl a vehicle listing
// @Description Loads a listing page, extracts the vehicle, downloads its images and stores it keyed by URL
// @Tags crawler
// @Accept json
// @Produce json
// @Param request body CrawlRequest true "Listing URL"
// @Success 200 {object} CrawlResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/crawler/crawl [post]
func (h *CrawlerHandler) Crawl(c *gin.Context) {
	var req CrawlRequest
	// A malformed body is reported the same way as a missing URL
	_ = c.ShouldBindJSON(&req)

	listingURL, err := validation.ValidateListingURL(req.URL, h.allowedHost)
	if err != nil {
		message := "Invalid Mercedes URL"
		if errors.Is(err, validation.ErrURLRequired) {
			message = "URL is required"
		}
		util.SafeErrorResponse(c, http.StatusBadRequest, message, err)
		return
	}

	result := h.crawler.CrawlVehicle(listingURL)
	if !result.Success || result.Vehicle == nil {
		message := result.Error
		if message == "" {
			message = "Crawl failed"
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: message})
		return
	}

	vehicle := result.Vehicle
	vehicle.URL = listingURL

	isNew, err := h.store.UpsertVehicle(vehicle)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to save vehicle", err)
		return
	}

	message := "Vehicle updated successfully"
	if isNew {
		message = "Vehicle crawled and saved successfully"
	}
	h.log.Info("vehicle stored", "id", vehicle.ID, "url", listingURL, "new", isNew)

	c.JSON(http.StatusOK, CrawlResponse{
		Message: message,
		Vehicle: vehicle,
		IsNew:   isNew,
	})
}

// Status godoc
// @Summary Crawl status
// @Description Returns the number of stored vehicles, the five most recently crawled and the crawls currently running
// @Tags crawler
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/crawler/status [get]
func (h *CrawlerHandler) Status(c *gin.Context) {
	total, err := h.store.CountVehicles()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	recent, err := h.store.RecentVehicles(recentCrawlsLimit)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		TotalVehicles:  total,
		RecentCrawls:   recent,
		InFlight:       h.crawler.InFlight(),
		RecentOutcomes: h.crawler.Outcomes(),
	})
}

// Vehicle godoc
// @Summary Stored vehicle for a crawl
// @Description Looks up a stored vehicle by id or listing URL together with the crawl state of its URL
// @Tags crawler
// @Produce json
// @Param id query string false "Vehicle ID"
// @Param url query string false "Listing URL"
// @Success 200 {object} VehicleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/crawler/vehicle [get]
func (h *CrawlerHandler) Vehicle(c *gin.Context) {
	var (
		vehicle *models.Vehicle
		err     error
	)

	if id := c.Query("id"); id != "" {
		vehicle, err = h.store.GetVehicle(id)
	} else {
		listingURL, verr := validation.ValidateListingURL(c.Query("url"), h.allowedHost)
		if verr != nil {
			message := "Invalid Mercedes URL"
			if errors.Is(verr, validation.ErrURLRequired) {
				message = "ID or URL is required"
			}
			util.SafeErrorResponse(c, http.StatusBadRequest, message, verr)
			return
		}
		vehicle, err = h.store.GetVehicleByURL(listingURL)
	}

	if errors.Is(err, database.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Vehicle not found"})
		return
	}
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	c.JSON(http.StatusOK, VehicleResponse{
		Vehicle: vehicle,
		Crawl:   h.crawler.State(vehicle.URL),
	})
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
