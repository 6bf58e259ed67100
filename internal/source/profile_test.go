package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSearchURL(t *testing.T) {
	p := Otomoto()

	tests := []struct {
		name    string
		segment string
		brand   string
		page    int
		want    string
	}{
		{"brand with page", "uzywane", "bmw", 3, "https://www.otomoto.pl/osobowe/uzywane/bmw?page=3"},
		{"brand without page", "uzywane", "bmw", 0, "https://www.otomoto.pl/osobowe/uzywane/bmw"},
		{"all brands", "nowe", "", 1, "https://www.otomoto.pl/osobowe/nowe?page=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.SearchURL(tt.segment, tt.brand, tt.page); got != tt.want {
				t.Errorf("SearchURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	p := OLX()
	if p.Segment("new") != p.NewSegment {
		t.Error("Segment(new) should return the new segment")
	}
	if p.Segment("used") != p.UsedSegment {
		t.Error("Segment(used) should return the used segment")
	}
	if p.Segment("") != p.UsedSegment {
		t.Error("Segment should default to used")
	}
}

func TestBuiltinProfilesValidate(t *testing.T) {
	for _, p := range []*Profile{Otomoto(), OLX()} {
		if err := p.Validate(); err != nil {
			t.Errorf("built-in profile %q failed validation: %v", p.Name, err)
		}
	}
}

func TestByName(t *testing.T) {
	if p, err := ByName("otomoto"); err != nil || p.Layout != LayoutInline {
		t.Errorf("ByName(otomoto) = %v, %v", p, err)
	}
	if p, err := ByName("olx"); err != nil || p.Layout != LayoutDetail {
		t.Errorf("ByName(olx) = %v, %v", p, err)
	}
	if _, err := ByName("craigslist"); err == nil {
		t.Error("expected an error for an unknown source")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	yaml := `
name: testsite
base_url: https://example.com/cars
layout: inline
used_segment: used
new_segment: new
selectors:
  results_list: div.results
  listing_card: article
  listing_link: a[href]
labels:
  mileage: ["Mileage"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.Name != "testsite" || p.Layout != LayoutInline {
		t.Errorf("loaded profile = %q/%q", p.Name, p.Layout)
	}
	if len(p.Labels[FieldMileage]) != 1 || p.Labels[FieldMileage][0] != "Mileage" {
		t.Errorf("labels = %v", p.Labels)
	}
}

func TestLoad_InvalidProfileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	yaml := `
name: broken
base_url: not-a-url
layout: sideways
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected a validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
