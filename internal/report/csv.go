package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"places_ranker/internal/domain"
)

var csvHeader = []string{
	"rank", "place_id", "name", "bayes", "rating", "reviews", "distance", "travel_time", "travel_cost",
}

// WriteCSV writes one row per business in ranking order. Absent values are
// empty cells and names are not truncated.
func WriteCSV(w io.Writer, r domain.Ranking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for i, b := range r.Businesses {
		rec := []string{
			strconv.Itoa(i + 1),
			cell(b.PlaceID),
			b.Name,
			floatCell(b.BayesianAverage, 4),
			floatCell(b.Rating, -1),
			intCell(b.NumRatings),
			cell(b.Distance),
			cell(b.TravelTime),
			floatCell(b.TravelCost, 2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatCell(p *float64, prec int) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', prec, 64)
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
