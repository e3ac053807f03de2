package gmaps

import (
	"context"
	"net/url"
	"strings"

	"places_ranker/internal/domain"
)

type distanceMatrixResponse struct {
	apiStatus
	Rows []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

type matrixElement struct {
	Status   string     `json:"status"`
	Distance *textValue `json:"distance,omitempty"`
	Duration *textValue `json:"duration,omitempty"`
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Enrich asks the distance matrix for all destinations in a single request
// and returns the results keyed by Destination.Key. The wire format is
// positional; the key join happens here and nowhere else.
func (c *Client) Enrich(ctx context.Context, origin domain.Coords, dests []domain.Destination) (map[string]domain.TravelInfo, error) {
	out := make(map[string]domain.TravelInfo, len(dests))
	if len(dests) == 0 {
		return out, nil
	}

	addrs := make([]string, len(dests))
	for i, d := range dests {
		addrs[i] = d.Address
	}
	params := url.Values{}
	params.Set("origins", origin.String())
	params.Set("destinations", strings.Join(addrs, "|"))
	params.Set("units", "imperial")

	var resp distanceMatrixResponse
	if err := c.get(ctx, "distancematrix", "/distancematrix/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("distancematrix", resp.apiStatus); err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return out, nil
	}
	return mapElements(dests, resp.Rows[0].Elements), nil
}
