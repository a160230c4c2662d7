package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"routecast/internal/types"
)

// defaultNWSBaseURL is the production National Weather Service API endpoint.
const defaultNWSBaseURL = "https://api.weather.gov"

// maxAlertsPerPoint caps how many active alerts are attached to a waypoint.
const maxAlertsPerPoint = 5

// maxAlertDescription caps alert descriptions, which can run to several
// paragraphs of forecaster discussion.
const maxAlertDescription = 500

// hourlyForecastHours is how many hourly periods are kept per snapshot.
const hourlyForecastHours = 12

// NWSClient implements types.WeatherProvider and types.AlertsProvider against
// the National Weather Service API. The NWS requires a contact-bearing
// User-Agent header, injected by the BaseClient.
//
// Forecasts are fetched once per sampled waypoint in a fan-out, so the client
// uses NoRetryPolicy; a flaky grid point degrades to a missing snapshot
// instead of stalling the whole route.
type NWSClient struct {
	base    *BaseClient
	baseURL string
	clock   types.Clock
}

var (
	_ types.WeatherProvider = (*NWSClient)(nil)
	_ types.AlertsProvider  = (*NWSClient)(nil)
)

// NWSOption is a functional option for configuring an NWSClient.
type NWSOption func(*NWSClient)

// WithNWSBaseURL overrides the API base URL. Used by tests to point the
// client at an httptest server.
func WithNWSBaseURL(baseURL string) NWSOption {
	return func(c *NWSClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewNWSClient creates a National Weather Service API client.
func NewNWSClient(httpClient *http.Client, userAgent string, clock types.Clock, opts ...NWSOption) *NWSClient {
	c := &NWSClient{
		base:    NewBaseClient(httpClient, "nws", NoRetryPolicy(), userAgent),
		baseURL: defaultNWSBaseURL,
		clock:   clock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pointsResponse is the subset of the /points response we consume.
type pointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

// forecastPeriod is one hourly period of an NWS gridpoint forecast.
type forecastPeriod struct {
	StartTime       string `json:"startTime"`
	Temperature     int    `json:"temperature"`
	TemperatureUnit string `json:"temperatureUnit"`
	WindSpeed       string `json:"windSpeed"`
	WindDirection   string `json:"windDirection"`
	ShortForecast   string `json:"shortForecast"`
	Icon            string `json:"icon"`
	IsDaytime       bool   `json:"isDaytime"`
	RelativeHumidity struct {
		Value *int `json:"value"`
	} `json:"relativeHumidity"`
	ProbabilityOfPrecipitation struct {
		Value *int `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

type forecastResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

// Forecast fetches the hourly gridpoint forecast for a coordinate. The NWS
// API is a two-step lookup: /points resolves the coordinate to a grid, whose
// forecastHourly URL is then fetched. Returns (nil, nil) when the point is
// outside NWS coverage or the grid has no published periods.
func (c *NWSClient) Forecast(ctx context.Context, coord types.Coordinate) (*types.WeatherSnapshot, error) {
	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, coord.Lat, coord.Lon)

	var point pointsResponse
	ok, err := c.getJSON(ctx, pointURL, &point)
	if err != nil {
		return nil, err
	}
	if !ok || point.Properties.ForecastHourly == "" {
		return nil, nil
	}

	var forecast forecastResponse
	ok, err = c.getJSON(ctx, point.Properties.ForecastHourly, &forecast)
	if err != nil {
		return nil, err
	}
	periods := forecast.Properties.Periods
	if !ok || len(periods) == 0 {
		return nil, nil
	}

	hourly := make([]types.HourlyForecast, 0, hourlyForecastHours)
	for _, period := range periods {
		if len(hourly) == hourlyForecastHours {
			break
		}
		hourly = append(hourly, types.HourlyForecast{
			Time:                period.StartTime,
			Temperature:         period.Temperature,
			Conditions:          period.ShortForecast,
			WindSpeed:           period.WindSpeed,
			PrecipitationChance: period.ProbabilityOfPrecipitation.Value,
		})
	}

	current := periods[0]
	temp := current.Temperature
	unit := current.TemperatureUnit
	if unit == "" {
		unit = "F"
	}

	// Approximate sunrise/sunset by local clock time. A proper solar
	// calculation would need the timezone of the waypoint; the UI only uses
	// these for day/night shading.
	now := c.clock.Now()
	sunrise := time.Date(now.Year(), now.Month(), now.Day(), 6, 30, 0, 0, now.Location()).Format("03:04 PM")
	sunset := time.Date(now.Year(), now.Month(), now.Day(), 18, 30, 0, 0, now.Location()).Format("03:04 PM")

	return &types.WeatherSnapshot{
		Temperature:     &temp,
		TemperatureUnit: unit,
		WindSpeed:       current.WindSpeed,
		WindDirection:   current.WindDirection,
		Conditions:      current.ShortForecast,
		Icon:            current.Icon,
		Humidity:        current.RelativeHumidity.Value,
		IsDaytime:       current.IsDaytime,
		Sunrise:         sunrise,
		Sunset:          sunset,
		HourlyForecast:  hourly,
	}, nil
}

// alertsResponse is the subset of the /alerts response we consume.
type alertsResponse struct {
	Features []struct {
		Properties struct {
			ID          string `json:"id"`
			Headline    string `json:"headline"`
			Severity    string `json:"severity"`
			Event       string `json:"event"`
			Description string `json:"description"`
			AreaDesc    string `json:"areaDesc"`
		} `json:"properties"`
	} `json:"features"`
}

// Alerts fetches active weather alerts covering a coordinate, capped at
// maxAlertsPerPoint with descriptions truncated.
func (c *NWSClient) Alerts(ctx context.Context, coord types.Coordinate) ([]types.WeatherAlert, error) {
	endpoint := fmt.Sprintf("%s/alerts?%s", c.baseURL, url.Values{
		"point": {fmt.Sprintf("%.4f,%.4f", coord.Lat, coord.Lon)},
	}.Encode())

	var payload alertsResponse
	ok, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	alerts := make([]types.WeatherAlert, 0, maxAlertsPerPoint)
	for _, feature := range payload.Features {
		if len(alerts) == maxAlertsPerPoint {
			break
		}
		props := feature.Properties

		id := props.ID
		if id == "" {
			id = uuid.New().String()
		}
		headline := props.Headline
		if headline == "" {
			headline = "Weather Alert"
		}
		event := props.Event
		if event == "" {
			event = "Weather Event"
		}
		description := props.Description
		if len(description) > maxAlertDescription {
			description = description[:maxAlertDescription]
		}

		alerts = append(alerts, types.WeatherAlert{
			ID:          id,
			Headline:    headline,
			Severity:    types.ParseAlertSeverity(props.Severity),
			Event:       event,
			Description: description,
			Areas:       props.AreaDesc,
		})
	}
	return alerts, nil
}

// getJSON performs a GET through the BaseClient. It returns ok=false on any
// non-200 status, which callers treat as "no data for this point" rather than
// a hard failure. Transport-level errors still propagate.
func (c *NWSClient) getJSON(ctx context.Context, rawURL string, dst interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeUpstreamWeather,
			"failed to build upstream request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, types.NewAppError(types.ErrCodeUpstreamWeather,
			"failed to decode weather response", err)
	}
	return true, nil
}
