package external

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"routecast/internal/types"
)

// defaultMapboxBaseURL is the production Mapbox API endpoint.
const defaultMapboxBaseURL = "https://api.mapbox.com"

// metersPerMile converts Mapbox distances (meters) to miles.
const metersPerMile = 1609.34

// MapboxClient implements types.Geocoder and types.RoutingProvider against the
// Mapbox Geocoding and Directions APIs.
type MapboxClient struct {
	base    *BaseClient
	baseURL string
	token   types.SecretString
}

// Compile-time interface assertions.
var (
	_ types.Geocoder        = (*MapboxClient)(nil)
	_ types.RoutingProvider = (*MapboxClient)(nil)
)

// MapboxOption is a functional option for configuring a MapboxClient.
type MapboxOption func(*MapboxClient)

// WithMapboxBaseURL overrides the API base URL. Used by tests to point the
// client at an httptest server.
func WithMapboxBaseURL(baseURL string) MapboxOption {
	return func(c *MapboxClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewMapboxClient creates a Mapbox API client. Geocoding and routing are
// single-shot calls on the request path, so the default retry policy applies.
func NewMapboxClient(httpClient *http.Client, token types.SecretString, userAgent string, opts ...MapboxOption) *MapboxClient {
	c := &MapboxClient{
		base:    NewBaseClient(httpClient, "mapbox", DefaultRetryPolicy(), userAgent),
		baseURL: defaultMapboxBaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// geocodeFeature is the subset of a Mapbox geocoding feature we consume.
type geocodeFeature struct {
	Text    string    `json:"text"`
	Center  []float64 `json:"center"` // [lon, lat]
	Context []struct {
		ID        string `json:"id"`
		ShortCode string `json:"short_code"`
	} `json:"context"`
}

type geocodeResponse struct {
	Features []geocodeFeature `json:"features"`
}

// Resolve geocodes a free-text location to coordinates. It returns (nil, nil)
// when Mapbox has no match, distinguishing "unknown place" from transport
// failures. Results are biased to US locations, matching the product scope.
func (c *MapboxClient) Resolve(ctx context.Context, location string) (*types.Coordinate, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(location))
	params := url.Values{
		"access_token": {c.token.Unmask()},
		"limit":        {"1"},
		"country":      {"US"},
	}

	var payload geocodeResponse
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), types.ErrCodeUpstreamGeocoder, &payload); err != nil {
		return nil, err
	}

	if len(payload.Features) == 0 || len(payload.Features[0].Center) < 2 {
		return nil, nil
	}

	center := payload.Features[0].Center
	coord, err := types.NewCoordinate(center[1], center[0])
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder,
			"geocoder returned out-of-range coordinates", err)
	}
	return &coord, nil
}

// Reverse resolves coordinates to a "City, ST" display name. It returns ""
// (with nil error) when no place-level feature covers the point.
func (c *MapboxClient) Reverse(ctx context.Context, coord types.Coordinate) (string, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%f,%f.json", c.baseURL, coord.Lon, coord.Lat)
	params := url.Values{
		"access_token": {c.token.Unmask()},
		"types":        {"place,locality"},
		"limit":        {"1"},
	}

	var payload geocodeResponse
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), types.ErrCodeUpstreamGeocoder, &payload); err != nil {
		return "", err
	}

	if len(payload.Features) == 0 {
		return "", nil
	}

	feature := payload.Features[0]
	state := ""
	for _, ctxEntry := range feature.Context {
		if strings.HasPrefix(ctxEntry.ID, "region") {
			state = strings.TrimPrefix(strings.ToUpper(ctxEntry.ShortCode), "US-")
			break
		}
	}

	if feature.Text != "" && state != "" {
		return feature.Text + ", " + state, nil
	}
	return feature.Text, nil
}

// directionsResponse is the subset of a Mapbox Directions response we consume.
type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Duration float64 `json:"duration"` // seconds
		Distance float64 `json:"distance"` // meters
		Legs     []struct {
			Steps []struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
				Name     string  `json:"name"`
				Ref      string  `json:"ref"`
				Maneuver struct {
					Instruction string `json:"instruction"`
					Type        string `json:"type"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route fetches a driving route through the optional via points. It returns
// (nil, nil) when Mapbox reports NoRoute, which the caller translates into a
// client-facing validation error.
func (c *MapboxClient) Route(ctx context.Context, origin, destination types.Coordinate, via []types.Coordinate) (*types.Route, error) {
	coords := make([]string, 0, len(via)+2)
	coords = append(coords, formatCoord(origin))
	for _, v := range via {
		coords = append(coords, formatCoord(v))
	}
	coords = append(coords, formatCoord(destination))

	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s", c.baseURL, strings.Join(coords, ";"))
	params := url.Values{
		"access_token": {c.token.Unmask()},
		"geometries":   {"polyline"},
		"overview":     {"full"},
	}

	var payload directionsResponse
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), types.ErrCodeUpstreamRouting, &payload); err != nil {
		return nil, err
	}

	if payload.Code == "NoRoute" || len(payload.Routes) == 0 {
		return nil, nil
	}

	route := payload.Routes[0]
	return &types.Route{
		Geometry:        route.Geometry,
		DurationMinutes: int(route.Duration / 60),
		DistanceMiles:   route.Distance / metersPerMile,
	}, nil
}

// Steps fetches turn-by-turn maneuvers for the origin-destination pair.
// Maneuvers from all legs are flattened into a single sequence.
func (c *MapboxClient) Steps(ctx context.Context, origin, destination types.Coordinate) ([]types.RouteStep, error) {
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s;%s",
		c.baseURL, formatCoord(origin), formatCoord(destination))
	params := url.Values{
		"access_token": {c.token.Unmask()},
		"steps":        {"true"},
		"geometries":   {"polyline"},
		"overview":     {"full"},
		"annotations":  {"distance,duration"},
	}

	var payload directionsResponse
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), types.ErrCodeUpstreamRouting, &payload); err != nil {
		return nil, err
	}

	if len(payload.Routes) == 0 {
		return nil, nil
	}

	var steps []types.RouteStep
	for _, leg := range payload.Routes[0].Legs {
		for _, step := range leg.Steps {
			instruction := step.Maneuver.Instruction
			if instruction == "" {
				instruction = "Continue"
			}
			maneuver := step.Maneuver.Type
			if maneuver == "" {
				maneuver = "straight"
			}
			roadName := step.Name
			if roadName == "" {
				roadName = step.Ref
			}

			steps = append(steps, types.RouteStep{
				Instruction:     instruction,
				DistanceMiles:   step.Distance / metersPerMile,
				DurationMinutes: int(math.Round(step.Duration / 60)),
				RoadName:        roadName,
				Maneuver:        maneuver,
			})
		}
	}
	return steps, nil
}

// getJSON performs a GET through the BaseClient and decodes the JSON body.
// Non-200 responses and decode failures are mapped to the given upstream code.
func (c *MapboxClient) getJSON(ctx context.Context, rawURL string, code types.ErrorCode, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.NewAppError(code, "failed to build upstream request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewAppError(code,
			fmt.Sprintf("mapbox returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(code, "failed to decode mapbox response", err)
	}
	return nil
}

// formatCoord renders a coordinate as "lon,lat" the way Mapbox expects.
func formatCoord(c types.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}
