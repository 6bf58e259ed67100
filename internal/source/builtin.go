package source

// Built-in profiles for the two supported sites. Selectors reflect the
// page layouts current at time of writing; when a site ships a
// redesign, override with a YAML profile instead of patching code.

// Otomoto returns the otomoto.pl profile. Search-result cards carry
// the key attributes inline, so a single pass over result pages is
// enough.
func Otomoto() *Profile {
	return &Profile{
		Name:        "otomoto",
		BaseURL:     "https://www.otomoto.pl/osobowe",
		Layout:      LayoutInline,
		UsedSegment: "uzywane",
		NewSegment:  "nowe",
		Selectors: Selectors{
			ResultsList: "div[data-testid=search-results]",
			ListingCard: "article[data-id]",
			ListingLink: "a[href]",
			CardTitle:   "h2",
			CardPrice:   "h3",
			CardParam:   "dd[data-parameter]",
			UsedCount:   "a[data-testid=select-used]",
			NewCount:    "a[data-testid=select-new]",

			DetailTitle:    "h1",
			DetailPrice:    "h3[class*=price]",
			DetailParam:    "div[data-testid=advert-details] div[data-testid]",
			DetailLocation: "a[href^='#map']",
		},
		Labels: map[Field][]string{
			FieldBrand:          {"Marka pojazdu"},
			FieldModel:          {"Model pojazdu"},
			FieldMileage:        {"Przebieg"},
			FieldEngineCapacity: {"Pojemność skokowa"},
			FieldEnginePower:    {"Moc"},
			FieldYear:           {"Rok produkcji"},
			FieldFuelType:       {"Rodzaj paliwa"},
			FieldGearbox:        {"Skrzynia biegów"},
			FieldBodyType:       {"Typ nadwozia"},
			FieldColour:         {"Kolor"},
			FieldColourFinish:   {"Rodzaj koloru"},
			FieldAccidentFree:   {"Bezwypadkowy"},
			FieldCondition:      {"Stan"},
		},
	}
}

// OLX returns the olx.pl profile. Result pages only link to detail
// pages, and those render their parameter list client-side, so the
// crawl is two-pass and browser-backed.
func OLX() *Profile {
	return &Profile{
		Name:        "olx",
		BaseURL:     "https://www.olx.pl/motoryzacja/samochody",
		Layout:      LayoutDetail,
		UsedSegment: "uzywane",
		NewSegment:  "nowe",
		Dynamic:     true,
		Selectors: Selectors{
			ResultsList: "div[data-testid=listing-grid]",
			ListingCard: "div[data-cy=l-card]",
			ListingLink: "a[href]",
			CardTitle:   "h6",
			CardPrice:   "p[data-testid=ad-price]",
			UsedCount:   "a[data-testid=select-used]",
			NewCount:    "a[data-testid=select-new]",

			DetailTitle:    "h4[data-cy=ad_title]",
			DetailPrice:    "h3[data-testid=ad-price-container]",
			DetailParam:    "ul li p",
			DetailLocation: "p[data-testid=location-name]",
		},
		Labels: map[Field][]string{
			FieldBrand:          {"Marka"},
			FieldModel:          {"Model"},
			FieldMileage:        {"Przebieg"},
			FieldEngineCapacity: {"Poj. silnika", "Pojemność silnika"},
			FieldEnginePower:    {"Moc silnika"},
			FieldYear:           {"Rok produkcji"},
			FieldFuelType:       {"Paliwo"},
			FieldGearbox:        {"Skrzynia biegów"},
			FieldBodyType:       {"Typ nadwozia"},
			FieldColour:         {"Kolor"},
			FieldCondition:      {"Stan techniczny"},
		},
	}
}
