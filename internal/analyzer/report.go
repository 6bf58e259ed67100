package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// WriteReport renders an analysis result as plain text.
func WriteReport(w io.Writer, r Result) {
	scopeName := "all records"
	if r.HasLocation {
		scopeName = "the selected location"
	}

	fmt.Fprintf(w, "Analyzed %d listings in %s\n\n", len(r.Scope), scopeName)

	writeOccasions(w, fmt.Sprintf("Occasions (vs %s)", scopeName), r.Occasions)
	if r.HasLocation {
		writeOccasions(w, "Occasions (vs all records)", r.CrossOccasions)
	}
	writeBestValue(w, r.BestValue)
}

func writeOccasions(w io.Writer, title string, occasions []Occasion) {
	fmt.Fprintf(w, "%s: %d found\n", title, len(occasions))
	for _, o := range occasions {
		l := o.Listing
		fmt.Fprintf(w, "  %s %s, %s, %s, %s km: %s PLN (group of %d averages %s PLN, %s below)\n",
			l.Brand, l.Model, intOrDash(l.Year), l.Gearbox,
			humanizeInt(l.MileageKm), humanizeInt(l.PriceLocal),
			o.GroupSize, humanize.Commaf(o.GroupMean), humanize.Commaf(o.Deviation))
		fmt.Fprintf(w, "      %s\n", l.SourceURL)
	}
	if len(occasions) > 0 {
		writeSourceShares(w, occasions)
	}
	fmt.Fprintln(w)
}

// writeSourceShares breaks occasions down by originating site.
func writeSourceShares(w io.Writer, occasions []Occasion) {
	counts := map[string]int{}
	for _, o := range occasions {
		counts[sourceOf(o.Listing.SourceURL)]++
	}
	for _, site := range []string{"otomoto", "olx", "other"} {
		if n := counts[site]; n > 0 {
			fmt.Fprintf(w, "  from %s: %d (%.0f%%)\n",
				site, n, float64(n)/float64(len(occasions))*100)
		}
	}
}

func writeBestValue(w io.Writer, ranked []Valued) {
	fmt.Fprintf(w, "Best price per kilometre (bottom %d%%): %d listings\n",
		defaultQuantilePct, len(ranked))
	for _, v := range ranked {
		l := v.Listing
		fmt.Fprintf(w, "  %s %s: %.2f PLN/km (%s PLN, %s km)\n      %s\n",
			l.Brand, l.Model, v.PricePerKm,
			humanizeInt(l.PriceLocal), humanizeInt(l.MileageKm), l.SourceURL)
	}
}

func sourceOf(url string) string {
	switch {
	case strings.Contains(url, "otomoto"):
		return "otomoto"
	case strings.Contains(url, "olx"):
		return "olx"
	}
	return "other"
}

func humanizeInt(v *int) string {
	if v == nil {
		return "-"
	}
	return humanize.Comma(int64(*v))
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
