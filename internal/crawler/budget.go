package crawler

import "math"

// Budget splits a total page budget between used and new listings in
// proportion to the observed totals, used pages rounded up. With no
// totals at all the whole budget goes to used listings.
func Budget(pages, usedTotal, newTotal int) (pagesUsed, pagesNew int) {
	if pages <= 0 {
		return 0, 0
	}
	total := usedTotal + newTotal
	if total == 0 {
		return pages, 0
	}
	pagesUsed = int(math.Ceil(float64(pages) * float64(usedTotal) / float64(total)))
	if pagesUsed > pages {
		pagesUsed = pages
	}
	return pagesUsed, pages - pagesUsed
}
