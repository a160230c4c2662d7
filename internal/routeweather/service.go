// Package routeweather orchestrates the route-weather pipeline: geocoding,
// routing, per-waypoint forecast fan-out, and the derived trip analyses that
// make up a RouteWeatherResponse.
package routeweather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"routecast/internal/conditions"
	"routecast/internal/geo"
	"routecast/internal/trip"
	"routecast/internal/types"
)

// waypointFanOutLimit caps concurrent upstream calls during the per-waypoint
// enrichment fan-out. The NWS asks clients to stay well under their
// unpublished rate limits; 10 in flight keeps a 30-waypoint route fast
// without hammering them.
const waypointFanOutLimit = 10

// clearanceSampleLimit caps how many route vertices are sent to the
// clearance provider; the bounding-box query only needs route coverage, not
// every vertex of the polyline.
const clearanceSampleLimit = 30

// Listing sizes for history and favorites.
const (
	historyLimit   = 10
	favoritesLimit = 20
)

// summaryFallback is returned when the summary generator is unconfigured or
// fails. The response is still complete without it.
const summaryFallback = "Weather summary unavailable. Check individual waypoints for conditions."

// Deps bundles the service's collaborators. Optional fields (Places,
// Clearances, Summarizer, Publisher) may be nil; the pipeline degrades by
// omitting the corresponding response sections.
type Deps struct {
	Logger     *slog.Logger
	Clock      types.Clock
	Geocoder   types.Geocoder
	Router     types.RoutingProvider
	Weather    types.WeatherProvider
	Alerts     types.AlertsProvider
	Places     types.PlacesSearchProvider
	Clearances types.ClearanceDataProvider
	Summarizer types.SummaryGenerator
	Store      types.RouteStore
	Publisher  types.DispatchPublisher
}

// Service implements the route-weather operations exposed by the API layer.
type Service struct {
	deps          Deps
	intervalMiles float64
}

// NewService creates a Service sampling waypoints every intervalMiles.
func NewService(deps Deps, intervalMiles float64) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = types.RealClock{}
	}
	return &Service{deps: deps, intervalMiles: intervalMiles}
}

// waypointResult carries the fan-out output for one waypoint.
type waypointResult struct {
	weather *types.WeatherSnapshot
	alerts  []types.WeatherAlert
	name    string
}

// ProcessRoute runs the full pipeline for one request and returns the
// assembled response. Upstream weather gaps degrade to missing snapshots;
// only geocoding and routing failures abort the request.
func (s *Service) ProcessRoute(ctx context.Context, req types.RouteRequest) (*types.RouteWeatherResponse, error) {
	departure := s.parseDeparture(ctx, req.DepartureTime)

	origin, err := s.resolveLocation(ctx, "origin", req.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := s.resolveLocation(ctx, "destination", req.Destination)
	if err != nil {
		return nil, err
	}

	// Intermediate stops are best-effort: an unresolvable stop is dropped
	// rather than failing the whole trip.
	var via []types.Coordinate
	for _, stop := range req.Stops {
		coord, err := s.deps.Geocoder.Resolve(ctx, stop.Location)
		if err != nil || coord == nil {
			s.deps.Logger.WarnContext(ctx, "skipping unresolvable stop",
				"location", stop.Location, "error", err)
			continue
		}
		via = append(via, *coord)
	}

	route, err := s.deps.Router.Route(ctx, *origin, *destination, via)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, types.NewAppError(types.ErrCodeValidationNoDrivableRoute,
			fmt.Sprintf("no drivable route found between %s and %s", req.Origin, req.Destination), nil)
	}

	coords := geo.DecodePolyline(route.Geometry)
	waypoints := geo.SampleWaypoints(coords, s.intervalMiles, departure)
	if len(waypoints) == 0 {
		return nil, types.NewAppError(types.ErrCodeInternalEmptyRoute,
			"route decoded to an empty waypoint set", nil)
	}

	enriched, hasSevere := s.enrichWaypoints(ctx, waypoints, req.Origin, req.Destination)

	vehicleType := req.VehicleType
	if vehicleType == "" {
		vehicleType = types.VehicleCar
	}

	resp := &types.RouteWeatherResponse{
		ID:                   uuid.New().String(),
		Origin:               req.Origin,
		Destination:          req.Destination,
		Stops:                req.Stops,
		DepartureTime:        departure,
		TotalDurationMinutes: route.DurationMinutes,
		TotalDistanceMiles:   route.DistanceMiles,
		RouteGeometry:        route.Geometry,
		Waypoints:            enriched,
		HasSevereWeather:     hasSevere,
		CreatedAt:            s.deps.Clock.Now().UTC(),
		VehicleType:          string(vehicleType),
		VehicleHeightFt:      req.VehicleHeightFt,
	}

	resp.PackingSuggestions = trip.PackingSuggestions(enriched)
	resp.WeatherTimeline = trip.WeatherTimeline(enriched)
	resp.AISummary = s.summarize(ctx, resp)

	score := conditions.Score(enriched, vehicleType)
	resp.SafetyScore = &score
	resp.HazardAlerts = conditions.GenerateHazards(enriched)
	resp.RestStops = trip.FindRestStops(ctx, s.deps.Places, s.deps.Logger, coords, enriched)
	resp.OptimalDeparture = trip.OptimalDeparture(enriched, departure)

	if req.TruckerMode {
		resp.TruckerWarnings = trip.TruckerWarnings(enriched)
	}

	rc := trip.AnalyzeRouteConditions(enriched)
	resp.RoadConditionSummary = rc.Summary
	resp.WorstRoadCondition = string(rc.WorstCondition)
	resp.RerouteRecommended = rc.RerouteRecommended
	resp.RerouteReason = rc.RerouteReason

	steps, err := s.deps.Router.Steps(ctx, *origin, *destination)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "turn-by-turn lookup failed", "error", err)
	} else {
		resp.TurnByTurn = trip.AnnotateTurnByTurn(steps, enriched)
	}

	if req.VehicleHeightFt != nil && s.deps.Clearances != nil {
		samples := geo.SamplePoints(coords, clearanceSampleLimit)
		clearances, err := s.deps.Clearances.ClearancesNear(ctx, samples)
		if err != nil {
			s.deps.Logger.WarnContext(ctx, "clearance lookup failed", "error", err)
		} else {
			resp.BridgeClearances = trip.BridgeClearanceAlerts(clearances, coords, *req.VehicleHeightFt)
		}
	}

	// Persistence and dispatch are best-effort: the caller already has the
	// computed response.
	if err := s.deps.Store.Save(ctx, resp); err != nil {
		s.deps.Logger.WarnContext(ctx, "route save failed", "route_id", resp.ID, "error", err)
	} else if resp.HasSevereWeather && s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishSevereWeather(ctx, resp.ID, resp.Origin, resp.Destination, resp.DepartureTime); err != nil {
			s.deps.Logger.WarnContext(ctx, "severe weather dispatch failed", "route_id", resp.ID, "error", err)
		}
	}

	return resp, nil
}

// Get returns a previously computed response by id.
func (s *Service) Get(ctx context.Context, id string) (*types.RouteWeatherResponse, error) {
	resp, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
	}
	return resp, nil
}

// History lists recently computed routes, newest first.
func (s *Service) History(ctx context.Context) ([]types.SavedRoute, error) {
	return s.deps.Store.ListRecent(ctx, historyLimit)
}

// Favorites lists saved favorites, newest first.
func (s *Service) Favorites(ctx context.Context) ([]types.SavedRoute, error) {
	return s.deps.Store.ListFavorites(ctx, favoritesLimit)
}

// SaveFavorite stores a favorite and returns it with its generated id.
func (s *Service) SaveFavorite(ctx context.Context, req types.FavoriteRequest) (*types.SavedRoute, error) {
	fav := types.SavedRoute{
		ID:          uuid.New().String(),
		Origin:      req.Origin,
		Destination: req.Destination,
		Stops:       req.Stops,
		Name:        req.Name,
		IsFavorite:  true,
		CreatedAt:   s.deps.Clock.Now().UTC(),
	}
	if err := s.deps.Store.SaveFavorite(ctx, fav); err != nil {
		return nil, err
	}
	return &fav, nil
}

// DeleteFavorite removes a favorite by id.
func (s *Service) DeleteFavorite(ctx context.Context, id string) error {
	deleted, err := s.deps.Store.DeleteFavorite(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return types.NewAppError(types.ErrCodeNotFoundFavorite, "favorite not found", nil)
	}
	return nil
}

// Geocode resolves a free-text location. Unlike the pipeline's origin and
// destination checks, an unresolvable standalone lookup is a 404.
func (s *Service) Geocode(ctx context.Context, location string) (*types.GeocodeResult, error) {
	coord, err := s.deps.Geocoder.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	if coord == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundLocation, "location not found: "+location, nil)
	}
	return &types.GeocodeResult{Location: location, Lat: coord.Lat, Lon: coord.Lon}, nil
}

// parseDeparture parses the optional RFC 3339 departure time, falling back to
// now. A malformed value is treated as absent rather than rejected so saved
// clients with stale formats keep working.
func (s *Service) parseDeparture(ctx context.Context, raw string) time.Time {
	if raw == "" {
		return s.deps.Clock.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "invalid departure time, using now", "value", raw)
		return s.deps.Clock.Now().UTC()
	}
	return t.UTC()
}

// resolveLocation geocodes a location, mapping "no match" to a validation
// error naming the field.
func (s *Service) resolveLocation(ctx context.Context, field, location string) (*types.Coordinate, error) {
	coord, err := s.deps.Geocoder.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	if coord == nil {
		return nil, types.NewAppError(types.ErrCodeValidationUnresolvedLocation,
			fmt.Sprintf("could not geocode %s: %s", field, location), nil)
	}
	return coord, nil
}

// enrichWaypoints fans out forecast, alert, and reverse-geocode lookups for
// every sampled waypoint. Individual failures degrade to missing data.
func (s *Service) enrichWaypoints(ctx context.Context, waypoints []types.Waypoint, origin, destination string) ([]types.WaypointWeather, bool) {
	results := make([]waypointResult, len(waypoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(waypointFanOutLimit)

	for i, wp := range waypoints {
		g.Go(func() error {
			coord := types.Coordinate{Lat: wp.Lat, Lon: wp.Lon}

			weather, err := s.deps.Weather.Forecast(gctx, coord)
			if err != nil {
				s.deps.Logger.WarnContext(gctx, "forecast lookup failed",
					"lat", wp.Lat, "lon", wp.Lon, "error", err)
			}
			results[i].weather = weather

			alerts, err := s.deps.Alerts.Alerts(gctx, coord)
			if err != nil {
				s.deps.Logger.WarnContext(gctx, "alerts lookup failed",
					"lat", wp.Lat, "lon", wp.Lon, "error", err)
			}
			results[i].alerts = alerts

			results[i].name = s.waypointName(gctx, i, len(waypoints), coord, origin, destination)
			return nil
		})
	}
	// Fan-out tasks never return errors; degradation is per-waypoint.
	_ = g.Wait()

	enriched := make([]types.WaypointWeather, len(waypoints))
	hasSevere := false
	for i, wp := range waypoints {
		wp.Name = results[i].name
		enriched[i] = types.WaypointWeather{
			Waypoint: wp,
			Weather:  results[i].weather,
			Alerts:   results[i].alerts,
		}
		for _, alert := range results[i].alerts {
			if alert.IsSevere() {
				hasSevere = true
			}
		}
	}
	return enriched, hasSevere
}

// waypointName builds the display name for waypoint i of n. Endpoints echo
// the request text; interior points use the reverse-geocoded place when one
// is available.
func (s *Service) waypointName(ctx context.Context, i, n int, coord types.Coordinate, origin, destination string) string {
	switch i {
	case 0:
		return "Start - " + origin
	case n - 1:
		return "End - " + destination
	}

	place, err := s.deps.Geocoder.Reverse(ctx, coord)
	if err != nil || place == "" {
		return fmt.Sprintf("Point %d", i)
	}
	return fmt.Sprintf("Point %d - %s", i, place)
}

// summarize builds the driver-facing prompt and asks the summary generator
// for two or three sentences, degrading to a fixed fallback.
func (s *Service) summarize(ctx context.Context, resp *types.RouteWeatherResponse) string {
	if s.deps.Summarizer == nil {
		return summaryFallback
	}

	summary, err := s.deps.Summarizer.Summarize(ctx, buildSummaryPrompt(resp))
	if err != nil || summary == "" {
		s.deps.Logger.WarnContext(ctx, "summary generation failed", "error", err)
		return summaryFallback
	}
	return summary
}

// buildSummaryPrompt renders the trip and per-waypoint conditions as the
// user prompt for the summary model.
func buildSummaryPrompt(resp *types.RouteWeatherResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the driving weather for a trip from %s to %s (%.0f miles, about %d minutes).\n",
		resp.Origin, resp.Destination, resp.TotalDistanceMiles, resp.TotalDurationMinutes)
	sb.WriteString("Conditions along the way:\n")

	alertCount := 0
	for _, wp := range resp.Waypoints {
		// Alerts count even where the forecast fetch failed.
		alertCount += len(wp.Alerts)
		if wp.Weather == nil {
			fmt.Fprintf(&sb, "- %s: no data\n", wp.Waypoint.Name)
			continue
		}
		line := wp.Weather.Conditions
		if line == "" {
			line = "unknown"
		}
		if wp.Weather.Temperature != nil {
			fmt.Fprintf(&sb, "- %s: %s, %d°%s\n", wp.Waypoint.Name, line,
				*wp.Weather.Temperature, wp.Weather.TemperatureUnit)
		} else {
			fmt.Fprintf(&sb, "- %s: %s\n", wp.Waypoint.Name, line)
		}
	}
	if alertCount > 0 {
		fmt.Fprintf(&sb, "There are %d active weather alerts on this route.\n", alertCount)
	}
	sb.WriteString("Write 2-3 sentences a driver can act on. Mention the riskiest stretch if any.")
	return sb.String()
}
