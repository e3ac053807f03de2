package ranking

import (
	"strconv"
	"strings"
)

// roundTrip doubles the time component: the traveller drives there and back.
const roundTrip = 2

// CostModel prices a trip by distance and by the traveller's time.
type CostModel struct {
	PricePerMile     float64
	TimeValuePerHour float64
}

// Cost = miles*PricePerMile + hours*TimeValuePerHour*2.
func (m CostModel) Cost(miles, hours float64) float64 {
	return miles*m.PricePerMile + hours*m.TimeValuePerHour*roundTrip
}

// Estimate parses the distance and duration texts returned by the
// distance matrix and prices the trip.
func (m CostModel) Estimate(distance, travelTime string) (float64, error) {
	miles, err := ParseDistance(distance)
	if err != nil {
		return 0, err
	}
	hours, err := ParseDuration(travelTime)
	if err != nil {
		return 0, err
	}
	return m.Cost(miles, hours), nil
}

// ParseDistance returns the leading number of s ("12.3 mi" -> 12.3).
// The unit is not interpreted. Thousands separators are dropped.
func ParseDistance(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, &ParseError{Field: "distance", Input: s}
	}
	num := leadingNumber(fields[0])
	if num == "" {
		return 0, &ParseError{Field: "distance", Input: s}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &ParseError{Field: "distance", Input: s, Err: err}
	}
	return v, nil
}

// ParseDuration sums (value, unit) pairs into hours: "1 hour 30 mins" -> 1.5.
// Units other than hours and minutes contribute nothing.
func ParseDuration(s string) (float64, error) {
	fields := strings.Fields(s)
	var hours float64
	for i := 0; i < len(fields); i += 2 {
		v, err := strconv.ParseFloat(strings.ReplaceAll(fields[i], ",", ""), 64)
		if err != nil {
			return 0, &ParseError{Field: "travel_time", Input: s, Err: err}
		}
		if i+1 >= len(fields) {
			break
		}
		switch strings.ToLower(fields[i+1]) {
		case "hour", "hours":
			hours += v
		case "min", "mins":
			hours += v / 60
		}
	}
	return hours, nil
}

func leadingNumber(tok string) string {
	var b strings.Builder
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
		default:
			return b.String()
		}
	}
	return b.String()
}
