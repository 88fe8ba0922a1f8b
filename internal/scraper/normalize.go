package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"mercedeshelper/internal/models"
)

var (
	priceCharsRegex = regexp.MustCompile(`[^\d,.-]`)
	nonDigitRegex   = regexp.MustCompile(`\D`)
	yearRegex       = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
)

// ParsePrice converts a German formatted price ("35.000,50 €") into a number.
// Dots are thousands separators and the last comma is the decimal separator.
// Empty, unparseable or negative input yields 0.
func ParsePrice(priceStr string) float64 {
	clean := priceCharsRegex.ReplaceAllString(priceStr, "")
	if clean == "" {
		return 0
	}

	clean = strings.ReplaceAll(clean, ".", "")
	if idx := strings.LastIndex(clean, ","); idx >= 0 {
		whole := strings.ReplaceAll(clean[:idx], ",", "")
		// "54.990,-" is a whole euro amount
		if frac := clean[idx+1:]; frac == "" || frac == "-" {
			clean = whole
		} else {
			clean = whole + "." + frac
		}
	}

	price, err := strconv.ParseFloat(clean, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// ParseYear returns the first standalone four digit number in yearStr,
// falling back to the current year of now.
func ParseYear(yearStr string, now time.Time) int {
	if matches := yearRegex.FindStringSubmatch(strings.TrimSpace(yearStr)); len(matches) > 1 {
		if year, err := strconv.Atoi(matches[1]); err == nil && year > 0 {
			return year
		}
	}
	return now.Year()
}

// ParseMileage keeps only the digits of mileageStr ("45.000 km" -> 45000)
func ParseMileage(mileageStr string) int {
	clean := nonDigitRegex.ReplaceAllString(mileageStr, "")
	if clean == "" {
		return 0
	}
	mileage, err := strconv.Atoi(clean)
	if err != nil {
		return 0
	}
	return mileage
}

// Normalize assembles a fully typed vehicle from a raw extraction and the
// local image paths. Every field gets a deterministic fallback.
func Normalize(url string, raw *models.RawExtraction, mainImage string, gallery []string, now time.Time) *models.Vehicle {
	if gallery == nil {
		gallery = []string{}
	}

	return &models.Vehicle{
		URL:               url,
		MainImage:         mainImage,
		ImageGallery:      gallery,
		Price:             ParsePrice(raw.Get(models.FieldPrice)),
		Manufacturer:      models.DefaultManufacturer,
		Model:             raw.Get(models.FieldModel),
		VehicleNumber:     raw.Get(models.FieldVehicleNumber),
		VehicleType:       raw.Get(models.FieldVehicleType),
		FirstRegistration: raw.Get(models.FieldFirstRegistration),
		ModelYear:         ParseYear(raw.Get(models.FieldModelYear), now),
		Mileage:           ParseMileage(raw.Get(models.FieldMileage)),
		Power:             raw.Get(models.FieldPower),
		FuelType:          raw.Get(models.FieldFuelType),
		Transmission:      raw.Get(models.FieldTransmission),
		ExteriorColor:     raw.Get(models.FieldExteriorColor),
		InteriorColor:     raw.Get(models.FieldInteriorColor),
		Upholstery:        raw.Get(models.FieldUpholstery),
		Acceleration:      raw.Get(models.FieldAcceleration),
		Warranty:          raw.Get(models.FieldWarranty),
		ChargingDuration:  raw.Get(models.FieldChargingDuration),
		ElectricRange:     raw.Get(models.FieldElectricRange),
		Energy:            raw.Get(models.FieldEnergy),
		DealerLocation:    raw.Get(models.FieldDealerLocation),
		Interior:          raw.FeatureList(models.FeatureInterior),
		Exterior:          raw.FeatureList(models.FeatureExterior),
		Infotainment:      raw.FeatureList(models.FeatureInfotainment),
		SafetyTech:        raw.FeatureList(models.FeatureSafetyTech),
		Packages:          raw.FeatureList(models.FeaturePackages),
	}
}
