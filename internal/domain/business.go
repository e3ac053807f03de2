package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Business is one search candidate. Optional fields are nil until known.
type Business struct {
	Key        string // per-run correlation key, joins enrichment results
	PlaceID    *string
	Name       string
	Address    *string
	Rating     *float64
	NumRatings *int

	BayesianAverage *float64

	Distance   *string // e.g. "3.4 mi"
	TravelTime *string // e.g. "1 hour 5 mins"
	TravelCost *float64
}

// HasTravel reports whether enrichment filled both distance and travel time.
func (b Business) HasTravel() bool {
	return b.Distance != nil && b.TravelTime != nil
}

type Prior struct {
	Rating float64
	Weight float64
}

// Ranking is the outcome of one pipeline run, ordered best first.
type Ranking struct {
	RunID      string
	Term       string
	Prior      Prior
	Businesses []Business
}

type Coords struct{ Lat, Lon float64 }

var ErrInvalidCoords = errors.New("invalid coordinates")

// ParseCoords accepts "lat,lng" with optional whitespace, e.g. "35.99, -86.79".
func ParseCoords(s string) (Coords, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coords{}, fmt.Errorf("%w: %q", ErrInvalidCoords, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coords{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoords, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coords{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoords, parts[1])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coords{}, fmt.Errorf("%w: %q out of range", ErrInvalidCoords, s)
	}
	return Coords{Lat: lat, Lon: lon}, nil
}

// String renders the "lat,lng" form the upstream APIs expect.
func (c Coords) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
