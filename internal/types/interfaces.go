package types

import (
	"context"
	"time"
)

// Route is the routing-provider result for a single driving route.
type Route struct {
	Geometry        string  // encoded polyline, precision 1e5
	DurationMinutes int
	DistanceMiles   float64
}

// RouteStep is one maneuver of a turn-by-turn leg.
type RouteStep struct {
	Instruction     string
	DistanceMiles   float64
	DurationMinutes int
	RoadName        string
	Maneuver        string // turn-left, merge, straight, new name, ...
}

// PlaceResult is a point of interest returned by a places search.
type PlaceResult struct {
	Name          string
	Lat           float64
	Lon           float64
	Address       string
	DistanceMiles float64
}

// Clearance is a height-restricted structure near the route.
type Clearance struct {
	Location    string
	Lat         float64
	Lon         float64
	ClearanceFt float64
	Highway     string
	Direction   string
}

// Geocoder resolves free-text locations to coordinates and back.
// Resolve returns (nil, nil) when the location cannot be resolved; Reverse
// returns "" when no display name is known. Errors are reserved for
// transport failures.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (*Coordinate, error)
	Reverse(ctx context.Context, c Coordinate) (string, error)
}

// RoutingProvider fetches driving routes. Route returns (nil, nil) when the
// provider reports that no drivable route exists.
type RoutingProvider interface {
	Route(ctx context.Context, origin, destination Coordinate, via []Coordinate) (*Route, error)
	Steps(ctx context.Context, origin, destination Coordinate) ([]RouteStep, error)
}

// WeatherProvider fetches the point forecast for a coordinate. A nil
// snapshot with nil error means the provider had no data for the point.
type WeatherProvider interface {
	Forecast(ctx context.Context, c Coordinate) (*WeatherSnapshot, error)
}

// AlertsProvider fetches active weather alerts covering a coordinate.
type AlertsProvider interface {
	Alerts(ctx context.Context, c Coordinate) ([]WeatherAlert, error)
}

// PlacesSearchProvider finds points of interest near a coordinate.
type PlacesSearchProvider interface {
	Nearby(ctx context.Context, c Coordinate, keyword string, radiusMeters int) ([]PlaceResult, error)
}

// ClearanceDataProvider returns height-restricted structures near a set of
// route sample points.
type ClearanceDataProvider interface {
	ClearancesNear(ctx context.Context, points []Coordinate) ([]Clearance, error)
}

// SummaryGenerator produces the short natural-language trip summary.
// Implementations degrade to a fixed fallback string rather than failing.
type SummaryGenerator interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// RouteStore persists computed responses. Save is append-only and invoked
// best-effort; Get returns (nil, nil) when the id is unknown.
type RouteStore interface {
	Save(ctx context.Context, resp *RouteWeatherResponse) error
	Get(ctx context.Context, id string) (*RouteWeatherResponse, error)
	ListRecent(ctx context.Context, limit int) ([]SavedRoute, error)
	ListFavorites(ctx context.Context, limit int) ([]SavedRoute, error)
	SaveFavorite(ctx context.Context, fav SavedRoute) error
	DeleteFavorite(ctx context.Context, id string) (bool, error)
}

// DispatchPublisher announces a persisted response that carries severe
// weather so the (external) notification pipeline can pick it up.
type DispatchPublisher interface {
	PublishSevereWeather(ctx context.Context, routeID string, origin, destination string, departure time.Time) error
}
