// Package report renders a ranking for people (fixed-width table) and for
// spreadsheets (CSV). It never changes the ranking it is given.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"places_ranker/internal/domain"
)

// Placeholder is shown for any value that could not be determined.
const Placeholder = "N/A"

const DefaultNameWidth = 40

// column widths, name excluded
const (
	wPlaceID = 28
	wScore   = 10
	wRating  = 10
	wReviews = 10
	wDist    = 10
	wTime    = 15
	wCost    = 15
)

type Table struct {
	NameWidth int
}

// Render writes the prior summary, the header and one row per business.
// Every row has the same eight columns.
func (t Table) Render(w io.Writer, r domain.Ranking) error {
	nw := t.NameWidth
	if nw <= 0 {
		nw = DefaultNameWidth
	}
	row := fmt.Sprintf("%%-%ds %%-%ds %%-%ds %%-%ds %%-%ds %%-%ds %%-%ds %%s\n",
		wPlaceID, nw, wScore, wRating, wReviews, wDist, wTime)
	width := wPlaceID + nw + wScore + wRating + wReviews + wDist + wTime + wCost + 7

	var b strings.Builder
	fmt.Fprintf(&b, "Prior Rating: %.2f\n", r.Prior.Rating)
	fmt.Fprintf(&b, "Prior Number of Ratings: %s\n", strconv.FormatFloat(r.Prior.Weight, 'f', -1, 64))
	b.WriteString("\n")
	fmt.Fprintf(&b, row, "Place ID", "Name", "Bayes", "Rating", "Reviews", "Distance", "Travel Time", "Travel Cost")
	b.WriteString(strings.Repeat("-", width) + "\n")

	for _, biz := range r.Businesses {
		fmt.Fprintf(&b, row,
			str(biz.PlaceID),
			Truncate(biz.Name, nw),
			float(biz.BayesianAverage, 2),
			float(biz.Rating, -1),
			count(biz.NumRatings),
			str(biz.Distance),
			str(biz.TravelTime),
			float(biz.TravelCost, 2),
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func str(p *string) string {
	if p == nil {
		return Placeholder
	}
	return *p
}

// float formats p with prec decimals; prec -1 means as short as possible.
func float(p *float64, prec int) string {
	if p == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*p, 'f', prec, 64)
}

func count(p *int) string {
	if p == nil {
		return Placeholder
	}
	return strconv.Itoa(*p)
}
