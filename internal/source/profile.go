// Package source describes the classifieds sites carhunt knows how to
// read. Each site is a Profile: URL layout, CSS selectors and the label
// vocabulary its parameter tables use. Extraction code is generic; all
// per-site knowledge lives here or in a YAML override file.
package source

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Field identifies a listing attribute a profile can extract.
type Field string

const (
	FieldBrand          Field = "brand"
	FieldModel          Field = "model"
	FieldMileage        Field = "mileage"
	FieldEngineCapacity Field = "engine_capacity"
	FieldEnginePower    Field = "engine_power"
	FieldYear           Field = "year"
	FieldFuelType       Field = "fuel_type"
	FieldGearbox        Field = "gearbox"
	FieldBodyType       Field = "body_type"
	FieldColour         Field = "colour"
	FieldColourFinish   Field = "colour_finish"
	FieldAccidentFree   Field = "accident_free"
	FieldCondition      Field = "condition"
	FieldLocation       Field = "location"
)

// Layout says how a source presents listings in search results.
type Layout string

const (
	// LayoutInline means search-result cards carry the listing
	// attributes themselves (single-pass crawl).
	LayoutInline Layout = "inline"
	// LayoutDetail means search results only link to detail pages
	// that must be visited individually (two-pass crawl).
	LayoutDetail Layout = "detail"
)

// Selectors holds the CSS anchors for a source's page structure.
type Selectors struct {
	// Search-results page
	ResultsList string `yaml:"results_list" validate:"required"`
	ListingCard string `yaml:"listing_card" validate:"required"`
	ListingLink string `yaml:"listing_link" validate:"required"`
	CardTitle   string `yaml:"card_title"`
	CardPrice   string `yaml:"card_price"`
	CardParam   string `yaml:"card_param"` // inline layout: per-attribute dd/dt cells
	UsedCount   string `yaml:"used_count"` // anchor carrying the used-listings total
	NewCount    string `yaml:"new_count"`  // anchor carrying the new-listings total

	// Detail page (two-pass sources)
	DetailTitle    string `yaml:"detail_title"`
	DetailPrice    string `yaml:"detail_price"`
	DetailParam    string `yaml:"detail_param"` // one node per "Label: Value" row
	DetailLocation string `yaml:"detail_location"`
}

// Profile is the full static configuration for one source.
type Profile struct {
	Name    string `yaml:"name" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Layout  Layout `yaml:"layout" validate:"required,oneof=inline detail"`

	// URL path segments selecting listing condition.
	UsedSegment string `yaml:"used_segment" validate:"required"`
	NewSegment  string `yaml:"new_segment" validate:"required"`

	// Dynamic marks detail pages that render client-side and need a
	// browser-backed fetcher.
	Dynamic bool `yaml:"dynamic"`

	Selectors Selectors `yaml:"selectors"`

	// Labels maps each field to the label strings this site uses for
	// it in parameter tables, e.g. mileage -> ["Przebieg"]. Matching
	// is case-insensitive on the label prefix.
	Labels map[Field][]string `yaml:"labels"`
}

// SearchURL builds a paginated search URL for a condition segment and
// optional brand, mirroring the sites' /{condition}/{brand}?page=N
// scheme.
func (p *Profile) SearchURL(segment, brand string, page int) string {
	url := p.BaseURL + "/" + segment
	if brand != "" {
		url += "/" + brand
	}
	if page > 0 {
		url += fmt.Sprintf("?page=%d", page)
	}
	return url
}

// Segment returns the URL segment for a condition ("used" or "new").
func (p *Profile) Segment(condition string) string {
	if condition == "new" {
		return p.NewSegment
	}
	return p.UsedSegment
}

// Validate checks the profile for structural completeness.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid source profile %q: %w", p.Name, err)
	}
	return nil
}

// Load reads a profile from a YAML file and validates it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ByName returns a built-in profile.
func ByName(name string) (*Profile, error) {
	switch name {
	case "otomoto":
		return Otomoto(), nil
	case "olx":
		return OLX(), nil
	}
	return nil, fmt.Errorf("unknown source %q (want otomoto or olx)", name)
}
