package gmaps

import (
	"strings"

	"github.com/google/uuid"

	"places_ranker/internal/domain"
)

// nonEmpty drops blank optional strings so they read as absent.
func nonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

// Places ratings are on a 1 to 5 scale; 0 is accepted for unrated entries.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// inRange treats an out-of-scale rating as unknown.
func inRange(p *float64, lo, hi float64) *float64 {
	if p == nil || *p < lo || *p > hi {
		return nil
	}
	return p
}

func nonNegative(p *int) *int {
	if p == nil || *p < 0 {
		return nil
	}
	return p
}

func mapPlaces(in []placeResult) []domain.Business {
	out := make([]domain.Business, 0, len(in))
	for _, r := range in {
		out = append(out, domain.Business{
			Key:        uuid.NewString(),
			PlaceID:    nonEmpty(r.PlaceID),
			Name:       r.Name,
			Address:    nonEmpty(r.FormattedAddress),
			Rating:     inRange(r.Rating, MinRating, MaxRating),
			NumRatings: nonNegative(r.UserRatingsTotal),
		})
	}
	return out
}

// mapElements joins the positional matrix row back to destination keys.
// Elements beyond the destination list are ignored; destinations without an
// element get no entry, which callers treat as a miss.
func mapElements(dests []domain.Destination, els []matrixElement) map[string]domain.TravelInfo {
	out := make(map[string]domain.TravelInfo, len(dests))
	for i, el := range els {
		if i >= len(dests) {
			break
		}
		ti := domain.TravelInfo{Status: el.Status}
		if el.Distance != nil {
			ti.Distance = el.Distance.Text
		}
		if el.Duration != nil {
			ti.Duration = el.Duration.Text
		}
		// an OK element without text is unusable
		if ti.OK() && (ti.Distance == "" || ti.Duration == "") {
			ti.Status = "INCOMPLETE"
		}
		out[dests[i].Key] = ti
	}
	return out
}
