package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mercedeshelper/internal/models"
)

// Extractor runs a SelectorSet against a rendered listing page
type Extractor struct {
	selectors *SelectorSet
	labels    *LabelTable
}

// NewExtractor creates an extractor, falling back to the default selectors
func NewExtractor(set *SelectorSet) *Extractor {
	if set == nil {
		set = DefaultSelectors()
	}
	return &Extractor{
		selectors: set,
		labels:    NewLabelTable(set.Labels),
	}
}

// Selectors returns the table the extractor was built with
func (e *Extractor) Selectors() *SelectorSet {
	return e.selectors
}

// Extract reads every logical field from the rendered HTML of pageURL.
// Missing elements produce empty values; only an invalid page URL or an
// unparseable document is an error.
func (e *Extractor) Extract(pageURL, html string) (*models.RawExtraction, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	raw := models.NewRawExtraction()

	for field, candidates := range e.selectors.Fields {
		if value := firstValue(doc.Selection, candidates); value != "" {
			raw.Fields[field] = value
		}
	}

	// Spec blocks only fill fields the cascades left empty
	for field, value := range e.labels.Resolve(e.collectSpecs(doc)) {
		if _, exists := raw.Fields[field]; !exists {
			raw.Fields[field] = value
		}
	}

	raw.Images = e.collectImages(doc, base)

	if mainImage := firstValue(doc.Selection, e.selectors.MainImage); mainImage != "" {
		raw.MainImage = resolveURL(base, mainImage)
	}

	for _, group := range models.FeatureGroups {
		raw.Features[group] = e.collectFeatures(doc, e.selectors.FeatureContainers[group])
	}

	return raw, nil
}

// collectSpecs returns normalized label -> value for every label/value block
// whose label the table knows. A label seen twice keeps the last value.
func (e *Extractor) collectSpecs(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)
	if len(e.selectors.SpecBlocks) == 0 {
		return specs
	}

	labelCandidates := textCandidates(e.selectors.SpecLabels...)
	valueCandidates := textCandidates(e.selectors.SpecValues...)

	doc.Find(strings.Join(e.selectors.SpecBlocks, ", ")).Each(func(_ int, block *goquery.Selection) {
		label := firstValue(block, labelCandidates)
		value := firstValue(block, valueCandidates)
		if label == "" || value == "" {
			return
		}
		if _, known := e.labels.Lookup(label); known {
			specs[NormalizeLabel(label)] = value
		}
	})

	return specs
}

func (e *Extractor) collectImages(doc *goquery.Document, base *url.URL) []string {
	images := []string{}
	if len(e.selectors.Images) == 0 {
		return images
	}

	seen := make(map[string]bool)
	doc.Find(strings.Join(e.selectors.Images, ", ")).Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || e.isExcludedImage(src) {
			return
		}

		absolute := resolveURL(base, src)
		if absolute == "" || seen[absolute] {
			return
		}
		seen[absolute] = true
		images = append(images, absolute)
	})

	return images
}

func (e *Extractor) isExcludedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range e.selectors.ImageExclusions {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func (e *Extractor) collectFeatures(doc *goquery.Document, containers []string) []string {
	features := []string{}
	if len(e.selectors.FeatureItems) == 0 {
		return features
	}

	for _, selector := range containers {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		container.Find(strings.Join(e.selectors.FeatureItems, ", ")).Each(func(_ int, item *goquery.Selection) {
			if feature := cleanText(item.Text()); feature != "" {
				features = append(features, feature)
			}
		})
		break
	}

	return features
}

// firstValue walks the cascade and returns the first non-empty value
func firstValue(root *goquery.Selection, candidates []Candidate) string {
	for _, c := range candidates {
		var value string
		root.Find(c.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if c.Attr == "" {
				value = cleanText(s.Text())
			} else {
				value = strings.TrimSpace(s.AttrOr(c.Attr, ""))
			}
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

func cleanText(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// resolveURL makes src absolute against the page origin. Non-http schemes
// such as data: URIs are dropped.
func resolveURL(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
