package gmaps

import (
	"context"
	"net/url"
	"strconv"

	"places_ranker/internal/domain"
)

type textSearchResponse struct {
	apiStatus
	Results []placeResult `json:"results"`
}

type placeResult struct {
	Name             string   `json:"name"`
	FormattedAddress *string  `json:"formatted_address,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	PlaceID          *string  `json:"place_id,omitempty"`
}

// Search runs a Places text search around origin. Only the first result
// page is read.
func (c *Client) Search(ctx context.Context, term string, origin domain.Coords, radiusMeters int) ([]domain.Business, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("location", origin.String())
	params.Set("radius", strconv.Itoa(radiusMeters))

	var out textSearchResponse
	if err := c.get(ctx, "textsearch", "/place/textsearch/json", params, &out); err != nil {
		return nil, err
	}
	if err := checkStatus("textsearch", out.apiStatus); err != nil {
		return nil, err
	}
	return mapPlaces(out.Results), nil
}
