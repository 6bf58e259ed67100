// Package model defines the normalized records shared across the
// pipeline.
package model

import "time"

// Tri-state answer for attributes a seller may leave unanswered.
const (
	AnswerYes     = "yes"
	AnswerNo      = "no"
	AnswerUnknown = "unknown"
)

// Condition of the vehicle as advertised.
const (
	ConditionNew     = "new"
	ConditionUsed    = "used"
	ConditionUnknown = "unknown"
)

// Listing is one normalized vehicle offer. Numeric fields are pointers
// because sources routinely omit them; a nil field means the page did
// not carry that attribute, which is valid and persisted as NULL.
type Listing struct {
	ID int64 `json:"id" yaml:"id"`

	// SourceURL is the natural key, globally unique across sources.
	SourceURL string `json:"source_url" yaml:"source_url"`

	Brand            string `json:"brand" yaml:"brand"`
	Model            string `json:"model" yaml:"model"`
	MileageKm        *int   `json:"mileage_km,omitempty" yaml:"mileage_km,omitempty"`
	EngineCapacityCc *int   `json:"engine_capacity_cc,omitempty" yaml:"engine_capacity_cc,omitempty"`
	EnginePowerHp    *int   `json:"engine_power_hp,omitempty" yaml:"engine_power_hp,omitempty"`
	Year             *int   `json:"year,omitempty" yaml:"year,omitempty"`
	FuelType         string `json:"fuel_type" yaml:"fuel_type"`
	Gearbox          string `json:"gearbox" yaml:"gearbox"`
	BodyType         string `json:"body_type" yaml:"body_type"`
	Colour           string `json:"colour" yaml:"colour"`
	ColourFinish     string `json:"colour_finish" yaml:"colour_finish"`

	// AccidentFree is AnswerYes, AnswerNo or AnswerUnknown.
	AccidentFree string `json:"accident_free" yaml:"accident_free"`

	// ConditionStatus is ConditionNew, ConditionUsed or ConditionUnknown.
	ConditionStatus string `json:"condition_status" yaml:"condition_status"`

	// PriceLocal is the integer PLN price, no minor units.
	PriceLocal *int `json:"price_local,omitempty" yaml:"price_local,omitempty"`

	Location  *string   `json:"location,omitempty" yaml:"location,omitempty"`
	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`
}

// HasPrice reports whether the listing can take part in pricing math.
func (l *Listing) HasPrice() bool {
	return l.PriceLocal != nil
}

// Comparable reports whether the listing carries everything the
// similarity predicate needs: brand, model, gearbox, year, mileage and
// a price.
func (l *Listing) Comparable() bool {
	return l.Brand != "" && l.Model != "" && l.Gearbox != "" &&
		l.Year != nil && l.MileageKm != nil && l.PriceLocal != nil
}

// TotalsSnapshot is the per-brand used/new listing count observed at
// crawl time. It only feeds page-budget planning for future runs.
type TotalsSnapshot struct {
	Brand     string // brand name, or "" for the all-brands sentinel
	TotalUsed int
	TotalNew  int
	UpdatedAt time.Time
}

// IntPtr returns a pointer to v. Convenience for building listings.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
