// Package extract turns fetched pages into normalized listings, driven
// by a source profile. Missing optional anchors degrade to nil fields;
// only a listing without a resolvable URL is rejected.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/source"
)

// ErrNoListingURL marks a card or page whose listing URL could not be
// determined. Without the natural key the record cannot be stored.
var ErrNoListingURL = errors.New("listing URL not found")

// newMileageThresholdKm is the cutoff for inferring condition when a
// source does not state it: anything under 500 km is treated as new.
const newMileageThresholdKm = 500

// SearchPage is what a single results page yields: inline listings for
// single-pass sources, detail links for two-pass sources.
type SearchPage struct {
	Listings []*model.Listing
	Links    []string
}

// Extractor maps parsed documents to listings for one source.
type Extractor struct {
	profile *source.Profile
}

// New creates an extractor for the given profile.
func New(p *source.Profile) *Extractor {
	return &Extractor{profile: p}
}

// Counts reads the used/new listing totals from a search page. Both
// come back zero when the anchors are absent; the budget planner has a
// documented fallback for that.
func (e *Extractor) Counts(html string) (usedTotal, newTotal int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, 0, fmt.Errorf("parse counts page: %w", err)
	}
	if v := digits(doc.Find(e.profile.Selectors.UsedCount).First().Text()); v != nil {
		usedTotal = *v
	}
	if v := digits(doc.Find(e.profile.Selectors.NewCount).First().Text()); v != nil {
		newTotal = *v
	}
	return usedTotal, newTotal, nil
}

// SearchPage extracts a results page. For inline layouts every card
// becomes a listing; for detail layouts only the links are collected.
// Cards without a URL are skipped, not fatal.
func (e *Extractor) SearchPage(html, pageURL, condition string) (*SearchPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	sel := e.profile.Selectors
	results := doc.Find(sel.ResultsList)
	if results.Length() == 0 {
		// Fall back to the whole document: the wrapper div class
		// churns far more often than the cards themselves.
		results = doc.Selection
	}

	page := &SearchPage{}
	results.Find(sel.ListingCard).Each(func(_ int, card *goquery.Selection) {
		href := e.cardLink(card, pageURL)
		if href == "" {
			return
		}
		if e.profile.Layout == source.LayoutDetail {
			page.Links = append(page.Links, href)
			return
		}
		page.Listings = append(page.Listings, e.inlineListing(card, href, condition))
	})
	return page, nil
}

// DetailPage extracts one listing from its detail page.
func (e *Extractor) DetailPage(html, pageURL, condition string) (*model.Listing, error) {
	if pageURL == "" {
		return nil, ErrNoListingURL
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	sel := e.profile.Selectors
	l := &model.Listing{
		SourceURL:       pageURL,
		AccidentFree:    model.AnswerUnknown,
		ConditionStatus: model.ConditionUnknown,
		ScrapedAt:       time.Now(),
	}

	if title := cleanText(doc.Find(sel.DetailTitle).First().Text()); title != "" {
		brand, mdl := splitName(title)
		l.Brand, l.Model = brand, mdl
	}
	l.PriceLocal = nonNegative(digits(doc.Find(sel.DetailPrice).First().Text()))

	doc.Find(sel.DetailParam).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" {
			return
		}
		for field, labels := range e.profile.Labels {
			for _, label := range labels {
				if value, ok := matchLabel(text, label); ok {
					e.setField(l, field, value)
					return
				}
			}
		}
	})

	if loc := cleanText(doc.Find(sel.DetailLocation).First().Text()); loc != "" {
		l.Location = model.StringPtr(loc)
	}

	e.finalize(l, condition)
	return l, nil
}

// cardLink resolves a card's listing link against the page URL.
func (e *Extractor) cardLink(card *goquery.Selection, pageURL string) string {
	href, ok := card.Find(e.profile.Selectors.ListingLink).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	link, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base, err := url.Parse(pageURL); err == nil && !link.IsAbs() {
		link = base.ResolveReference(link)
	}
	return link.String()
}

// inlineListing builds a listing from a search-result card.
func (e *Extractor) inlineListing(card *goquery.Selection, href, condition string) *model.Listing {
	sel := e.profile.Selectors
	l := &model.Listing{
		SourceURL:       href,
		AccidentFree:    model.AnswerUnknown,
		ConditionStatus: model.ConditionUnknown,
		ScrapedAt:       time.Now(),
	}

	if title := cleanText(card.Find(sel.CardTitle).First().Text()); title != "" {
		l.Brand, l.Model = splitName(title)
	}
	l.PriceLocal = nonNegative(digits(card.Find(sel.CardPrice).First().Text()))

	// Inline cards carry attributes keyed by a data-parameter name
	// rather than a visible label.
	card.Find(sel.CardParam).Each(func(_ int, s *goquery.Selection) {
		param, _ := s.Attr("data-parameter")
		value := cleanText(s.Text())
		switch param {
		case "mileage":
			l.MileageKm = nonNegative(digits(value))
		case "fuel_type":
			l.FuelType = strings.ToLower(value)
		case "gearbox":
			l.Gearbox = strings.ToLower(value)
		case "year":
			l.Year = plausibleYear(digits(value))
		}
	})

	e.finalize(l, condition)
	return l
}

// setField assigns a labeled detail-page value to the listing.
func (e *Extractor) setField(l *model.Listing, field source.Field, value string) {
	switch field {
	case source.FieldBrand:
		l.Brand = strings.ToLower(value)
	case source.FieldModel:
		l.Model = value
	case source.FieldMileage:
		l.MileageKm = nonNegative(digits(value))
	case source.FieldEngineCapacity:
		l.EngineCapacityCc = nonNegative(digits(value))
	case source.FieldEnginePower:
		l.EnginePowerHp = nonNegative(digits(value))
	case source.FieldYear:
		l.Year = plausibleYear(digits(value))
	case source.FieldFuelType:
		l.FuelType = strings.ToLower(value)
	case source.FieldGearbox:
		l.Gearbox = strings.ToLower(value)
	case source.FieldBodyType:
		l.BodyType = strings.ToLower(value)
	case source.FieldColour:
		l.Colour = strings.ToLower(value)
	case source.FieldColourFinish:
		l.ColourFinish = strings.ToLower(value)
	case source.FieldAccidentFree:
		l.AccidentFree = triState(value)
	case source.FieldCondition:
		l.ConditionStatus = parseCondition(value)
	case source.FieldLocation:
		if v := cleanText(value); v != "" {
			l.Location = model.StringPtr(v)
		}
	}
}

// finalize applies the crawl-level condition and the mileage-based
// inference when the page itself did not state one.
func (e *Extractor) finalize(l *model.Listing, crawlCondition string) {
	if l.ConditionStatus != model.ConditionUnknown {
		return
	}
	switch crawlCondition {
	case model.ConditionNew, model.ConditionUsed:
		l.ConditionStatus = crawlCondition
	default:
		if l.MileageKm != nil {
			if *l.MileageKm < newMileageThresholdKm {
				l.ConditionStatus = model.ConditionNew
			} else {
				l.ConditionStatus = model.ConditionUsed
			}
		}
	}
}

// matchLabel checks whether text starts with the label (case
// insensitive) and returns the remainder with separators trimmed.
func matchLabel(text, label string) (string, bool) {
	if len(text) < len(label) || !strings.EqualFold(text[:len(label)], label) {
		return "", false
	}
	value := strings.TrimSpace(text[len(label):])
	value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	if value == "" {
		return "", false
	}
	return value, true
}

// splitName separates "Brand Rest of the name" into brand and model.
// Brand is the first token; multi-word model names stay intact.
func splitName(title string) (brand, mdl string) {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "", ""
	}
	brand = strings.ToLower(fields[0])
	mdl = strings.Join(fields[1:], " ")
	return brand, mdl
}

// triState maps the sites' Polish yes/no answers.
func triState(value string) string {
	switch strings.ToLower(cleanText(value)) {
	case "tak", "yes":
		return model.AnswerYes
	case "nie", "no":
		return model.AnswerNo
	}
	return model.AnswerUnknown
}

// parseCondition maps the sites' condition wording.
func parseCondition(value string) string {
	switch strings.ToLower(cleanText(value)) {
	case "nowe", "nowy", "new":
		return model.ConditionNew
	case "używane", "uzywane", "używany", "used":
		return model.ConditionUsed
	}
	return model.ConditionUnknown
}
