package domain

import (
	"context"
	"errors"
)

// ErrGatewayFatal marks upstream failures that abort a run (auth, transport,
// rejected request). Gateways wrap their errors with it.
var ErrGatewayFatal = errors.New("gateway: fatal upstream failure")

// StatusOK is the per-destination status of a successful lookup.
const StatusOK = "OK"

type Gateway interface {
	// Search returns candidates near origin; an empty slice is not an error.
	Search(ctx context.Context, term string, origin Coords, radiusMeters int) ([]Business, error)

	// Enrich looks up travel distance/time for every destination in one batch.
	// The result is keyed by Destination.Key; a missing key is a miss.
	Enrich(ctx context.Context, origin Coords, dests []Destination) (map[string]TravelInfo, error)
}

type Destination struct {
	Key     string
	Address string
}

type TravelInfo struct {
	Status   string
	Distance string
	Duration string
}

func (t TravelInfo) OK() bool { return t.Status == StatusOK }
