// Package analyzer finds listings priced below the market average for
// similar vehicles. It works entirely in memory on a snapshot of
// retrieved records; no locking, no I/O.
package analyzer

import (
	"sort"
	"strings"

	"github.com/carhunt/carhunt/internal/model"
)

// Similarity tolerances. Two listings are similar when brand, model
// and gearbox match exactly and year and mileage fall within these
// windows of the pivot.
const (
	yearWindow    = 2
	mileageWindow = 20000
)

// defaultQuantilePct is the share of the scope reported in the
// price-per-km ranking.
const defaultQuantilePct = 20

// Occasion is a listing priced below the mean of its similarity group.
type Occasion struct {
	Listing   model.Listing `json:"listing" yaml:"listing"`
	GroupSize int           `json:"group_size" yaml:"group_size"`
	GroupMean float64       `json:"group_mean" yaml:"group_mean"`

	// Deviation is GroupMean minus the listing's own price.
	Deviation float64 `json:"deviation" yaml:"deviation"`
}

// Valued is a listing ranked by price per kilometre.
type Valued struct {
	Listing    model.Listing `json:"listing" yaml:"listing"`
	PricePerKm float64       `json:"price_per_km" yaml:"price_per_km"`
}

// Result is one analysis run.
type Result struct {
	// Scope is the population that was analyzed: the local subset
	// when location patterns were given, otherwise every record.
	Scope []model.Listing `json:"scope" yaml:"scope"`

	// HasLocation reports whether a local subset was in play.
	HasLocation bool `json:"has_location" yaml:"has_location"`

	// Occasions compares each scope pivot against scope peers.
	Occasions []Occasion `json:"occasions" yaml:"occasions"`

	// CrossOccasions compares local pivots against the full global
	// population. Empty when no location was given (the two rankings
	// would coincide).
	CrossOccasions []Occasion `json:"cross_occasions,omitempty" yaml:"cross_occasions,omitempty"`

	// BestValue is the bottom price-per-km quantile of the scope.
	// Zero- or unknown-mileage listings are left out of this ranking
	// only; they still take part in occasion detection.
	BestValue []Valued `json:"best_value" yaml:"best_value"`
}

// Analyze runs occasion detection and the price-per-km ranking over
// records. locationPatterns narrows the analyzed scope to listings
// whose location contains any of the patterns; records that never
// stated a location stay global-only.
func Analyze(records []model.Listing, locationPatterns []string) Result {
	local := filterByLocation(records, locationPatterns)

	if local == nil {
		return Result{
			Scope:     records,
			Occasions: occasions(records, records),
			BestValue: bestValue(records, defaultQuantilePct),
		}
	}
	return Result{
		Scope:          local,
		HasLocation:    true,
		Occasions:      occasions(local, local),
		CrossOccasions: occasions(local, records),
		BestValue:      bestValue(local, defaultQuantilePct),
	}
}

// occasions flags every pivot priced below the mean of its similarity
// group within the given population. The function is the same for
// every scope; only the comparison population changes. The pivot is a
// member of its own group, so a group of size 1 can never produce an
// occasion.
func occasions(pivots, population []model.Listing) []Occasion {
	var found []Occasion
	for _, pivot := range pivots {
		if !pivot.Comparable() {
			continue
		}
		sum, n := 0, 0
		for _, candidate := range population {
			if candidate.Comparable() && similar(&pivot, &candidate) {
				sum += *candidate.PriceLocal
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := float64(sum) / float64(n)
		if price := float64(*pivot.PriceLocal); price < mean {
			found = append(found, Occasion{
				Listing:   pivot,
				GroupSize: n,
				GroupMean: mean,
				Deviation: mean - price,
			})
		}
	}
	sort.SliceStable(found, func(i, k int) bool {
		return found[i].Deviation > found[k].Deviation
	})
	return found
}

// similar is the similarity-group membership predicate. It is
// symmetric, but group membership is still defined per pivot: A and B
// being mutual members says nothing about C.
func similar(pivot, candidate *model.Listing) bool {
	if pivot.Brand != candidate.Brand ||
		pivot.Model != candidate.Model ||
		pivot.Gearbox != candidate.Gearbox {
		return false
	}
	if abs(*pivot.Year-*candidate.Year) > yearWindow {
		return false
	}
	return abs(*pivot.MileageKm-*candidate.MileageKm) <= mileageWindow
}

// bestValue ranks the scope ascending by price per kilometre and keeps
// the bottom quantilePct percent. Price per km is undefined at zero or
// unknown mileage, so those records are excluded here.
func bestValue(scope []model.Listing, quantilePct int) []Valued {
	var ranked []Valued
	for _, l := range scope {
		if l.PriceLocal == nil || l.MileageKm == nil || *l.MileageKm == 0 {
			continue
		}
		ranked = append(ranked, Valued{
			Listing:    l,
			PricePerKm: float64(*l.PriceLocal) / float64(*l.MileageKm),
		})
	}
	sort.SliceStable(ranked, func(i, k int) bool {
		return ranked[i].PricePerKm < ranked[k].PricePerKm
	})
	keep := len(ranked) * quantilePct / 100
	if keep == 0 && len(ranked) > 0 {
		keep = 1
	}
	return ranked[:keep]
}

// filterByLocation returns the listings whose location contains any of
// the patterns, or nil when no usable pattern was given.
func filterByLocation(records []model.Listing, patterns []string) []model.Listing {
	var usable []string
	for _, p := range patterns {
		if p != "" {
			usable = append(usable, strings.ToLower(p))
		}
	}
	if len(usable) == 0 {
		return nil
	}
	// Non-nil even when nothing matches: an unmatched pattern means an
	// empty local scope, not a fallback to global analysis.
	local := []model.Listing{}
	for _, l := range records {
		if l.Location == nil {
			continue
		}
		loc := strings.ToLower(*l.Location)
		for _, p := range usable {
			if strings.Contains(loc, p) {
				local = append(local, l)
				break
			}
		}
	}
	return local
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
