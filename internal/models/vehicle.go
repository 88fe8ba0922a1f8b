package models

import "time"

// Logical field names produced by the page extractor
const (
	FieldModel             = "model"
	FieldPrice             = "price"
	FieldVehicleNumber     = "vehicleNumber"
	FieldVehicleType       = "vehicleType"
	FieldFirstRegistration = "firstRegistration"
	FieldModelYear         = "modelYear"
	FieldMileage           = "mileage"
	FieldPower             = "power"
	FieldFuelType          = "fuelType"
	FieldTransmission      = "transmission"
	FieldExteriorColor     = "exteriorColor"
	FieldInteriorColor     = "interiorColor"
	FieldUpholstery        = "upholstery"
	FieldAcceleration      = "acceleration"
	FieldWarranty          = "warranty"
	FieldChargingDuration  = "chargingDuration"
	FieldElectricRange     = "electricRange"
	FieldEnergy            = "energy"
	FieldDealerLocation    = "dealerLocation"
)

// Feature list groups
const (
	FeatureInterior     = "interior"
	FeatureExterior     = "exterior"
	FeatureInfotainment = "infotainment"
	FeatureSafetyTech   = "safetyTech"
	FeaturePackages     = "packages"
)

// ScalarFields lists every single-valued field the extractor may fill
var ScalarFields = []string{
	FieldModel, FieldPrice, FieldVehicleNumber, FieldVehicleType, FieldFirstRegistration,
	FieldModelYear, FieldMileage, FieldPower, FieldFuelType, FieldTransmission,
	FieldExteriorColor, FieldInteriorColor, FieldUpholstery, FieldAcceleration, FieldWarranty,
	FieldChargingDuration, FieldElectricRange, FieldEnergy, FieldDealerLocation,
}

// FeatureGroups lists the feature list fields in display order
var FeatureGroups = []string{
	FeatureInterior, FeatureExterior, FeatureInfotainment, FeatureSafetyTech, FeaturePackages,
}

// IsScalarField reports whether name is a known single-valued field
func IsScalarField(name string) bool {
	for _, f := range ScalarFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsFeatureGroup reports whether name is a known feature list field
func IsFeatureGroup(name string) bool {
	for _, f := range FeatureGroups {
		if f == name {
			return true
		}
	}
	return false
}

// RawExtraction holds the untyped strings read from a listing page.
// It lives for a single crawl and is discarded once normalized.
type RawExtraction struct {
	Fields    map[string]string   `json:"fields"`
	Images    []string            `json:"images"`
	MainImage string              `json:"mainImage,omitempty"`
	Features  map[string][]string `json:"features"`
}

// NewRawExtraction returns an empty extraction with initialized maps
func NewRawExtraction() *RawExtraction {
	return &RawExtraction{
		Fields:   make(map[string]string),
		Images:   []string{},
		Features: make(map[string][]string),
	}
}

// Get returns the raw value for a field, or "" when absent
func (r *RawExtraction) Get(field string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}

// FeatureList returns the raw items for a feature group, never nil
func (r *RawExtraction) FeatureList(group string) []string {
	if r == nil || r.Features == nil || r.Features[group] == nil {
		return []string{}
	}
	return r.Features[group]
}

// Vehicle is the normalized listing record handed to the persistence layer.
// MainImage and ImageGallery hold local server-relative paths, not remote URLs.
type Vehicle struct {
	ID                string    `json:"id,omitempty"`
	URL               string    `json:"mercedesUrl"`
	MainImage         string    `json:"mainImage,omitempty"`
	ImageGallery      []string  `json:"imageGallery"`
	Price             float64   `json:"price"`
	Manufacturer      string    `json:"manufacturer"`
	Model             string    `json:"model"`
	VehicleNumber     string    `json:"vehicleNumber"`
	VehicleType       string    `json:"vehicleType"`
	FirstRegistration string    `json:"firstRegistration"`
	ModelYear         int       `json:"modelYear"`
	Mileage           int       `json:"mileage"`
	Power             string    `json:"power"`
	FuelType          string    `json:"fuelType"`
	Transmission      string    `json:"transmission"`
	ExteriorColor     string    `json:"exteriorColor"`
	InteriorColor     string    `json:"interiorColor"`
	Upholstery        string    `json:"upholstery"`
	Acceleration      string    `json:"acceleration"`
	Warranty          string    `json:"warranty"`
	ChargingDuration  string    `json:"chargingDuration"`
	ElectricRange     string    `json:"electricRange"`
	Energy            string    `json:"energy"`
	DealerLocation    string    `json:"dealerLocation"`
	Interior          []string  `json:"interior"`
	Exterior          []string  `json:"exterior"`
	Infotainment      []string  `json:"infotainment"`
	SafetyTech        []string  `json:"safetyTech"`
	Packages          []string  `json:"packages"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy of v, lists included
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	c := *v
	c.ImageGallery = cloneList(v.ImageGallery)
	c.Interior = cloneList(v.Interior)
	c.Exterior = cloneList(v.Exterior)
	c.Infotainment = cloneList(v.Infotainment)
	c.SafetyTech = cloneList(v.SafetyTech)
	c.Packages = cloneList(v.Packages)
	return &c
}

func cloneList(list []string) []string {
	if list == nil {
		return nil
	}
	return append(make([]string, 0, len(list)), list...)
}

// DefaultManufacturer is the only make listed on the crawled site
const DefaultManufacturer = "Mercedes-Benz"

// CrawlResult is the outcome of one crawl: either a vehicle or an error message
type CrawlResult struct {
	Success bool     `json:"success"`
	Vehicle *Vehicle `json:"vehicle,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// CrawlState tracks a single crawl invocation
type CrawlState int

const (
	CrawlIdle CrawlState = iota
	CrawlInProgress
	CrawlSucceeded
	CrawlFailed
)

func (s CrawlState) String() string {
	switch s {
	case CrawlIdle:
		return "idle"
	case CrawlInProgress:
		return "in_progress"
	case CrawlSucceeded:
		return "success"
	case CrawlFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CrawlStatus describes the crawl state of one URL. FinishedAt and Error
// are only set once the crawl has ended.
type CrawlStatus struct {
	URL        string     `json:"url"`
	State      string     `json:"state"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RecentCrawl is a summary row for the crawl status endpoint
type RecentCrawl struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	URL       string    `json:"mercedesUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}
