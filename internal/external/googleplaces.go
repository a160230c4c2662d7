package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"routecast/internal/geo"
	"routecast/internal/types"
)

// defaultPlacesBaseURL is the production Google Places API endpoint.
const defaultPlacesBaseURL = "https://maps.googleapis.com"

// maxPlaceResults caps the results consumed from a single nearby search.
const maxPlaceResults = 20

// GooglePlacesClient implements types.PlacesSearchProvider against the Google
// Places Nearby Search API.
//
// Places are looked up once per rest-stop sample in a fan-out, so the client
// uses NoRetryPolicy; a failed sample degrades to a skipped rest stop.
type GooglePlacesClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
}

var _ types.PlacesSearchProvider = (*GooglePlacesClient)(nil)

// GooglePlacesOption is a functional option for configuring a GooglePlacesClient.
type GooglePlacesOption func(*GooglePlacesClient)

// WithPlacesBaseURL overrides the API base URL. Used by tests to point the
// client at an httptest server.
func WithPlacesBaseURL(baseURL string) GooglePlacesOption {
	return func(c *GooglePlacesClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewGooglePlacesClient creates a Google Places API client.
func NewGooglePlacesClient(httpClient *http.Client, apiKey types.SecretString, userAgent string, opts ...GooglePlacesOption) *GooglePlacesClient {
	c := &GooglePlacesClient{
		base:    NewBaseClient(httpClient, "google-places", NoRetryPolicy(), userAgent),
		baseURL: defaultPlacesBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nearbySearchResponse is the subset of a Nearby Search response we consume.
type nearbySearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Nearby searches for points of interest around a coordinate. Results are
// sorted by distance from the search point. A ZERO_RESULTS status yields an
// empty slice; any other non-OK status is an upstream error.
func (c *GooglePlacesClient) Nearby(ctx context.Context, coord types.Coordinate, keyword string, radiusMeters int) ([]types.PlaceResult, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", coord.Lat, coord.Lon)},
		"radius":   {strconv.Itoa(radiusMeters)},
		"key":      {c.apiKey.Unmask()},
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	endpoint := c.baseURL + "/maps/api/place/nearbysearch/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces,
			"failed to build upstream request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces,
			fmt.Sprintf("places API returned status %d", resp.StatusCode), nil)
	}

	var payload nearbySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces,
			"failed to decode places response", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces,
			fmt.Sprintf("places API status %s: %s", payload.Status, payload.ErrorMessage), nil)
	}

	results := make([]types.PlaceResult, 0, maxPlaceResults)
	for _, place := range payload.Results {
		if len(results) == maxPlaceResults {
			break
		}
		loc := place.Geometry.Location
		name := place.Name
		if name == "" {
			name = "Unknown"
		}
		results = append(results, types.PlaceResult{
			Name:          name,
			Lat:           loc.Lat,
			Lon:           loc.Lng,
			Address:       place.Vicinity,
			DistanceMiles: geo.Distance(coord, types.Coordinate{Lat: loc.Lat, Lon: loc.Lng}),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMiles < results[j].DistanceMiles
	})
	return results, nil
}
