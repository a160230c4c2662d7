package routeweather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"routecast/internal/types"
)

// --- Deterministic stubs ---

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubGeocoder struct {
	coords  map[string]types.Coordinate
	reverse string
}

func (g *stubGeocoder) Resolve(_ context.Context, location string) (*types.Coordinate, error) {
	if c, ok := g.coords[location]; ok {
		return &c, nil
	}
	return nil, nil
}

func (g *stubGeocoder) Reverse(_ context.Context, _ types.Coordinate) (string, error) {
	return g.reverse, nil
}

type stubRouter struct {
	route    *types.Route
	steps    []types.RouteStep
	stepsErr error
	viaSeen  []types.Coordinate
}

func (r *stubRouter) Route(_ context.Context, _, _ types.Coordinate, via []types.Coordinate) (*types.Route, error) {
	r.viaSeen = via
	return r.route, nil
}

func (r *stubRouter) Steps(_ context.Context, _, _ types.Coordinate) ([]types.RouteStep, error) {
	return r.steps, r.stepsErr
}

type stubWeather struct{ snapshot *types.WeatherSnapshot }

func (w *stubWeather) Forecast(_ context.Context, _ types.Coordinate) (*types.WeatherSnapshot, error) {
	return w.snapshot, nil
}

type stubAlerts struct{ alerts []types.WeatherAlert }

func (a *stubAlerts) Alerts(_ context.Context, _ types.Coordinate) ([]types.WeatherAlert, error) {
	return a.alerts, nil
}

type stubClearances struct {
	clearances []types.Clearance
	called     bool
}

func (c *stubClearances) ClearancesNear(_ context.Context, _ []types.Coordinate) ([]types.Clearance, error) {
	c.called = true
	return c.clearances, nil
}

type stubSummarizer struct {
	summary string
	err     error
	prompt  string
}

func (s *stubSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.summary, s.err
}

type stubStore struct {
	saved     []*types.RouteWeatherResponse
	saveErr   error
	byID      map[string]*types.RouteWeatherResponse
	favorites []types.SavedRoute
	deleted   bool
}

func (s *stubStore) Save(_ context.Context, resp *types.RouteWeatherResponse) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, resp)
	return nil
}

func (s *stubStore) Get(_ context.Context, id string) (*types.RouteWeatherResponse, error) {
	return s.byID[id], nil
}

func (s *stubStore) ListRecent(_ context.Context, limit int) ([]types.SavedRoute, error) {
	return nil, nil
}

func (s *stubStore) ListFavorites(_ context.Context, limit int) ([]types.SavedRoute, error) {
	return s.favorites, nil
}

func (s *stubStore) SaveFavorite(_ context.Context, fav types.SavedRoute) error {
	s.favorites = append(s.favorites, fav)
	return nil
}

func (s *stubStore) DeleteFavorite(_ context.Context, id string) (bool, error) {
	return s.deleted, nil
}

type stubPublisher struct {
	routeIDs []string
}

func (p *stubPublisher) PublishSevereWeather(_ context.Context, routeID string, _, _ string, _ time.Time) error {
	p.routeIDs = append(p.routeIDs, routeID)
	return nil
}

// --- Fixtures ---

var (
	denver = types.Coordinate{Lat: 39.7392, Lon: -104.9903}
	limon  = types.Coordinate{Lat: 39.2639, Lon: -103.6922}
	kansas = types.Coordinate{Lat: 39.0997, Lon: -94.5786}
)

// testGeometry encodes a Denver-to-Kansas-City line long enough to sample
// several interior waypoints at a 50-mile interval.
func testGeometry(t *testing.T) string {
	t.Helper()
	coords := [][]float64{
		{39.7392, -104.9903},
		{39.5000, -103.5000},
		{39.3000, -102.0000},
		{39.2000, -100.5000},
		{39.1500, -99.0000},
		{39.1200, -97.5000},
		{39.1000, -96.0000},
		{39.0997, -94.5786},
	}
	return string(polyline.EncodeCoords(coords))
}

func intPtr(v int) *int { return &v }

type fixture struct {
	svc        *Service
	geocoder   *stubGeocoder
	router     *stubRouter
	weather    *stubWeather
	alerts     *stubAlerts
	clearances *stubClearances
	summarizer *stubSummarizer
	store      *stubStore
	publisher  *stubPublisher
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := &fixture{
		geocoder: &stubGeocoder{
			coords: map[string]types.Coordinate{
				"Denver, CO":      denver,
				"Limon, CO":       limon,
				"Kansas City, MO": kansas,
			},
			reverse: "Hays, KS",
		},
		router: &stubRouter{
			route: &types.Route{
				Geometry:        testGeometry(t),
				DurationMinutes: 540,
				DistanceMiles:   600.5,
			},
			steps: []types.RouteStep{
				{Instruction: "Merge onto I-70", DistanceMiles: 580, DurationMinutes: 520, RoadName: "I-70", Maneuver: "merge"},
			},
		},
		weather: &stubWeather{snapshot: &types.WeatherSnapshot{
			Temperature: intPtr(72),
			Conditions:  "Sunny",
			WindSpeed:   "10 mph",
			HourlyForecast: []types.HourlyForecast{
				{Time: "2026-03-10T09:00:00Z", Temperature: 72, Conditions: "Sunny", WindSpeed: "10 mph"},
				{Time: "2026-03-10T10:00:00Z", Temperature: 74, Conditions: "Sunny", WindSpeed: "12 mph"},
			},
		}},
		alerts:     &stubAlerts{},
		clearances: &stubClearances{},
		summarizer: &stubSummarizer{summary: "Smooth sailing to Kansas City."},
		store:      &stubStore{byID: map[string]*types.RouteWeatherResponse{}},
		publisher:  &stubPublisher{},
		now:        now,
	}
	f.svc = NewService(Deps{
		Logger:     slog.Default(),
		Clock:      fixedClock{t: now},
		Geocoder:   f.geocoder,
		Router:     f.router,
		Weather:    f.weather,
		Alerts:     f.alerts,
		Clearances: f.clearances,
		Summarizer: f.summarizer,
		Store:      f.store,
		Publisher:  f.publisher,
	}, 50)
	return f
}

// --- ProcessRoute ---

func TestProcessRoute(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:        "Denver, CO",
		Destination:   "Kansas City, MO",
		DepartureTime: "2026-03-10T09:00:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Denver, CO", resp.Origin)
	assert.Equal(t, 540, resp.TotalDurationMinutes)
	assert.InDelta(t, 600.5, resp.TotalDistanceMiles, 0.01)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), resp.DepartureTime)
	assert.Equal(t, f.now, resp.CreatedAt)
	assert.Equal(t, "car", resp.VehicleType)

	require.GreaterOrEqual(t, len(resp.Waypoints), 3)
	assert.Equal(t, "Start - Denver, CO", resp.Waypoints[0].Waypoint.Name)
	assert.Equal(t, "End - Kansas City, MO", resp.Waypoints[len(resp.Waypoints)-1].Waypoint.Name)
	assert.Contains(t, resp.Waypoints[1].Waypoint.Name, "Point 1 - Hays, KS")

	// Every waypoint carries the stubbed forecast.
	for _, wp := range resp.Waypoints {
		require.NotNil(t, wp.Weather)
		assert.Equal(t, "Sunny", wp.Weather.Conditions)
	}

	assert.False(t, resp.HasSevereWeather)
	assert.Equal(t, "Smooth sailing to Kansas City.", resp.AISummary)
	assert.Contains(t, f.summarizer.prompt, "Denver, CO")
	require.NotNil(t, resp.SafetyScore)
	// Identical hourly entries across waypoints dedup by timestamp.
	require.Len(t, resp.WeatherTimeline, 2)
	assert.Equal(t, "2026-03-10T09:00:00Z", resp.WeatherTimeline[0].Time)
	require.Len(t, resp.TurnByTurn, 1)
	assert.Equal(t, "Merge onto I-70", resp.TurnByTurn[0].Instruction)
	require.NotNil(t, resp.OptimalDeparture)

	// Persisted, but not dispatched (no severe weather).
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, resp.ID, f.store.saved[0].ID)
	assert.Empty(t, f.publisher.routeIDs)

	// No vehicle height means no clearance lookup.
	assert.False(t, f.clearances.called)
	assert.Empty(t, resp.TruckerWarnings)
}

func TestProcessRouteSevereWeatherDispatch(t *testing.T) {
	f := newFixture(t)
	f.alerts.alerts = []types.WeatherAlert{{
		ID:       "alert-1",
		Headline: "Blizzard Warning",
		Severity: types.SeveritySevere,
		Event:    "Blizzard Warning",
	}}

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.NoError(t, err)

	assert.True(t, resp.HasSevereWeather)
	require.Len(t, f.publisher.routeIDs, 1)
	assert.Equal(t, resp.ID, f.publisher.routeIDs[0])
}

func TestProcessRouteSaveFailureSkipsDispatch(t *testing.T) {
	f := newFixture(t)
	f.alerts.alerts = []types.WeatherAlert{{Severity: types.SeverityExtreme}}
	f.store.saveErr = errors.New("db down")

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.NoError(t, err)
	assert.True(t, resp.HasSevereWeather)

	// An unsaved route is never announced downstream.
	assert.Empty(t, f.publisher.routeIDs)
}

func TestProcessRouteUnresolvableOrigin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Atlantis",
		Destination: "Kansas City, MO",
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationUnresolvedLocation, appErr.Code)
	assert.Contains(t, appErr.Message, "origin")
}

func TestProcessRouteNoDrivableRoute(t *testing.T) {
	f := newFixture(t)
	f.router.route = nil

	_, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationNoDrivableRoute, appErr.Code)
}

func TestProcessRouteInvalidDepartureFallsBack(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:        "Denver, CO",
		Destination:   "Kansas City, MO",
		DepartureTime: "tomorrow morning",
	})
	require.NoError(t, err)
	assert.Equal(t, f.now, resp.DepartureTime)
}

func TestProcessRouteSkipsUnresolvableStops(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
		Stops: []types.StopPoint{
			{Location: "Limon, CO", Type: "gas"},
			{Location: "Nowhereville XYZ", Type: "food"},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.router.viaSeen, 1)
	assert.InDelta(t, limon.Lat, f.router.viaSeen[0].Lat, 1e-6)
}

func TestProcessRouteBridgeClearances(t *testing.T) {
	f := newFixture(t)
	f.clearances.clearances = []types.Clearance{{
		Location:    "8th Ave Underpass",
		Lat:         39.5,
		Lon:         -103.5,
		ClearanceFt: 12.0,
	}}
	height := 13.5

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:          "Denver, CO",
		Destination:     "Kansas City, MO",
		VehicleType:     types.VehicleSemi,
		TruckerMode:     true,
		VehicleHeightFt: &height,
	})
	require.NoError(t, err)

	assert.True(t, f.clearances.called)
	require.NotEmpty(t, resp.BridgeClearances)
	assert.Equal(t, "8th Ave Underpass", resp.BridgeClearances[0].Location)
	assert.Equal(t, 13.5, resp.BridgeClearances[0].VehicleHeightFt)
	assert.Equal(t, "semi", resp.VehicleType)
}

func TestProcessRouteSummaryFallback(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = errors.New("model unavailable")
	f.summarizer.summary = ""

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.NoError(t, err)
	assert.Equal(t, summaryFallback, resp.AISummary)
}

func TestProcessRouteStepsFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.router.steps = nil
	f.router.stepsErr = errors.New("directions unavailable")

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.TurnByTurn)
}

func TestProcessRouteDeterministic(t *testing.T) {
	f := newFixture(t)
	req := types.RouteRequest{
		Origin:        "Denver, CO",
		Destination:   "Kansas City, MO",
		DepartureTime: "2026-03-10T09:00:00Z",
	}

	first, err := f.svc.ProcessRoute(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.ProcessRoute(context.Background(), req)
	require.NoError(t, err)

	// Identical inputs yield identical analysis; only the id differs.
	assert.NotEqual(t, first.ID, second.ID)
	second.ID = first.ID
	assert.Equal(t, first, second)
}

// --- Lookup operations ---

func TestGet(t *testing.T) {
	f := newFixture(t)
	f.store.byID["rt_known"] = &types.RouteWeatherResponse{ID: "rt_known"}

	resp, err := f.svc.Get(context.Background(), "rt_known")
	require.NoError(t, err)
	assert.Equal(t, "rt_known", resp.ID)

	_, err = f.svc.Get(context.Background(), "rt_missing")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundRoute, appErr.Code)
}

func TestSaveFavorite(t *testing.T) {
	f := newFixture(t)

	fav, err := f.svc.SaveFavorite(context.Background(), types.FavoriteRequest{
		Origin:      "Denver, CO",
		Destination: "Moab, UT",
		Name:        "Weekend trip",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, fav.ID)
	assert.True(t, fav.IsFavorite)
	assert.Equal(t, f.now, fav.CreatedAt)
	require.Len(t, f.store.favorites, 1)
}

func TestDeleteFavoriteNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.deleted = false

	err := f.svc.DeleteFavorite(context.Background(), "rt_missing")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundFavorite, appErr.Code)

	f.store.deleted = true
	require.NoError(t, f.svc.DeleteFavorite(context.Background(), "rt_known"))
}

func TestGeocode(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Geocode(context.Background(), "Denver, CO")
	require.NoError(t, err)
	assert.InDelta(t, denver.Lat, result.Lat, 1e-6)
	assert.InDelta(t, denver.Lon, result.Lon, 1e-6)

	_, err = f.svc.Geocode(context.Background(), "Atlantis")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundLocation, appErr.Code)
}

func TestBuildSummaryPrompt(t *testing.T) {
	resp := &types.RouteWeatherResponse{
		Origin:               "Denver, CO",
		Destination:          "Kansas City, MO",
		TotalDistanceMiles:   600,
		TotalDurationMinutes: 540,
		Waypoints: []types.WaypointWeather{
			{
				Waypoint: types.Waypoint{Name: "Start - Denver, CO"},
				Weather:  &types.WeatherSnapshot{Conditions: "Sunny", Temperature: intPtr(72), TemperatureUnit: "F"},
			},
			{
				Waypoint: types.Waypoint{Name: "Point 1"},
				Alerts:   []types.WeatherAlert{{Event: "Wind Advisory"}},
			},
		},
	}

	prompt := buildSummaryPrompt(resp)
	assert.Contains(t, prompt, "Denver, CO to Kansas City, MO")
	assert.Contains(t, prompt, "Sunny, 72°F")
	assert.Contains(t, prompt, "Point 1: no data")
	assert.Contains(t, prompt, "1 active weather alerts")
}

func TestWaypointNameFallsBackWithoutPlace(t *testing.T) {
	f := newFixture(t)
	f.geocoder.reverse = ""

	resp, err := f.svc.ProcessRoute(context.Background(), types.RouteRequest{
		Origin:      "Denver, CO",
		Destination: "Kansas City, MO",
	})
	require.NoError(t, err)

	for i, wp := range resp.Waypoints[1 : len(resp.Waypoints)-1] {
		assert.Equal(t, fmt.Sprintf("Point %d", i+1), wp.Waypoint.Name)
	}
}
