package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"routecast/internal/geo"
	"routecast/internal/types"
)

// Overpass API endpoints (public, no key required). The backup mirror is
// tried when the primary is unreachable or rate limited.
const (
	defaultOverpassURL = "https://overpass-api.de/api/interpreter"
	backupOverpassURL  = "https://overpass.kumi.systems/api/interpreter"
)

// bboxBufferDegrees pads the route bounding box by roughly 1 km so structures
// just off the carriageway are still matched.
const bboxBufferDegrees = 0.01

// clearanceRouteWindowMiles is how close a tagged structure must be to a
// route sample point to count as "on the route".
const clearanceRouteWindowMiles = 0.5

// feetPerMeter converts OSM metric clearances to feet.
const feetPerMeter = 3.28084

// OverpassClient implements types.ClearanceDataProvider by querying
// OpenStreetMap maxheight tags via the Overpass API.
type OverpassClient struct {
	base *BaseClient
	urls []string
}

var _ types.ClearanceDataProvider = (*OverpassClient)(nil)

// OverpassOption is a functional option for configuring an OverpassClient.
type OverpassOption func(*OverpassClient)

// WithOverpassURLs overrides the endpoint list. Used by tests to point the
// client at an httptest server.
func WithOverpassURLs(urls ...string) OverpassOption {
	return func(c *OverpassClient) {
		c.urls = urls
	}
}

// NewOverpassClient creates an Overpass API client. Clearance lookups are a
// single POST per route, but the public Overpass instances are best-effort
// community infrastructure; instead of retrying one instance we fail over to
// the mirror.
func NewOverpassClient(httpClient *http.Client, userAgent string, opts ...OverpassOption) *OverpassClient {
	c := &OverpassClient{
		base: NewBaseClient(httpClient, "overpass", NoRetryPolicy(), userAgent),
		urls: []string{defaultOverpassURL, backupOverpassURL},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// overpassElement is one element of an Overpass JSON response.
type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// ClearancesNear queries OpenStreetMap for height-restricted structures within
// the bounding box of the given route sample points, keeping only structures
// within clearanceRouteWindowMiles of a sample point.
func (c *OverpassClient) ClearancesNear(ctx context.Context, points []types.Coordinate) ([]types.Clearance, error) {
	if len(points) == 0 {
		return nil, nil
	}

	query := buildClearanceQuery(points)

	payload, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}

	return extractClearances(payload.Elements, points), nil
}

// query posts the Overpass QL query, failing over across endpoints.
func (c *OverpassClient) query(ctx context.Context, query string) (*overpassResponse, error) {
	var lastErr error

	for _, endpoint := range c.urls {
		form := url.Values{"data": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable,
				"failed to build overpass request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.base.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = types.NewAppError(types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("overpass returned status %d", resp.StatusCode), nil)
			continue
		}

		var payload overpassResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if decodeErr != nil {
			lastErr = types.NewAppError(types.ErrCodeUpstreamUnavailable,
				"failed to decode overpass response", decodeErr)
			continue
		}

		return &payload, nil
	}

	return nil, lastErr
}

// buildClearanceQuery renders the Overpass QL query for maxheight-tagged
// structures inside the padded bounding box of the route points.
func buildClearanceQuery(points []types.Coordinate) string {
	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}

	bbox := fmt.Sprintf("%f,%f,%f,%f",
		minLat-bboxBufferDegrees, minLon-bboxBufferDegrees,
		maxLat+bboxBufferDegrees, maxLon+bboxBufferDegrees)

	return fmt.Sprintf(`[out:json][timeout:30];
(
  way["maxheight"](%[1]s);
  way["maxheight:physical"](%[1]s);
  node["maxheight"](%[1]s);
  way["bridge"]["maxheight"](%[1]s);
  way["tunnel"]["maxheight"](%[1]s);
  way["man_made"="bridge"]["maxheight"](%[1]s);
);
out body;
>;
out skel qt;
`, bbox)
}

// extractClearances converts Overpass elements into Clearance records.
// Ways are positioned at the centroid of their member nodes.
func extractClearances(elements []overpassElement, routePoints []types.Coordinate) []types.Clearance {
	nodeCoords := make(map[int64]types.Coordinate)
	for _, elem := range elements {
		if elem.Type == "node" {
			nodeCoords[elem.ID] = types.Coordinate{Lat: elem.Lat, Lon: elem.Lon}
		}
	}

	var clearances []types.Clearance
	for _, elem := range elements {
		if elem.Type != "way" {
			continue
		}

		maxheight := elem.Tags["maxheight"]
		if maxheight == "" {
			maxheight = elem.Tags["maxheight:physical"]
		}
		if maxheight == "" {
			maxheight = elem.Tags["maxheight:legal"]
		}
		if maxheight == "" {
			continue
		}

		meters, ok := parseMaxHeight(maxheight)
		if !ok || meters <= 0 {
			continue
		}

		var sumLat, sumLon float64
		count := 0
		for _, nodeID := range elem.Nodes {
			coord, found := nodeCoords[nodeID]
			if !found {
				continue
			}
			sumLat += coord.Lat
			sumLon += coord.Lon
			count++
		}
		if count == 0 {
			continue
		}
		center := types.Coordinate{Lat: sumLat / float64(count), Lon: sumLon / float64(count)}

		if !nearRoute(center, routePoints) {
			continue
		}

		clearances = append(clearances, types.Clearance{
			Location:    clearanceLocationName(elem.Tags),
			Lat:         center.Lat,
			Lon:         center.Lon,
			ClearanceFt: meters * feetPerMeter,
			Highway:     elem.Tags["highway"],
		})
	}
	return clearances
}

// nearRoute reports whether the point is within the route window of any
// sample point.
func nearRoute(p types.Coordinate, routePoints []types.Coordinate) bool {
	for _, rp := range routePoints {
		if geo.Distance(p, rp) <= clearanceRouteWindowMiles {
			return true
		}
	}
	return false
}

// clearanceLocationName builds a display name from the way's tags,
// e.g. "Lincoln Tunnel (motorway) I-95".
func clearanceLocationName(tags map[string]string) string {
	var parts []string
	if name := tags["name"]; name != "" {
		parts = append(parts, name)
	}
	if highway := tags["highway"]; highway != "" {
		parts = append(parts, "("+highway+")")
	}
	if ref := tags["ref"]; ref != "" {
		parts = append(parts, ref)
	}
	if len(parts) == 0 {
		return "Bridge/Overpass"
	}
	return strings.Join(parts, " ")
}

// parseMaxHeight parses an OSM maxheight value to meters.
//
// Supported formats:
//
//	"4.2"       -> 4.2 meters
//	"4.2 m"     -> 4.2 meters
//	"13'6\""    -> feet/inches
//	"13.5'"     -> feet
//
// Sentinel values ("default", "none", "below_default") are rejected.
func parseMaxHeight(value string) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "", "default", "none", "below_default":
		return 0, false
	}

	// Feet/inches format, e.g. 13'6" or 13' 6".
	if strings.Contains(value, "'") {
		value = strings.ReplaceAll(value, `"`, "")
		parts := strings.SplitN(value, "'", 2)
		feet, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return 0, false
		}
		inches := 0.0
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			inches, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return 0, false
			}
		}
		return (feet + inches/12) / feetPerMeter, true
	}

	// Metric format with optional unit suffix.
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(value, "meters"), "meter"), "m"))
	meters, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return meters, true
}
