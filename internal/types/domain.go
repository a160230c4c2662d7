package types

import (
	"time"
)

// Coordinate is a validated lat/lon pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates latitude/longitude ranges at construction so
// downstream code never sees an out-of-range pair.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, NewAppErrorWithDetails(ErrCodeValidationInvalidLat,
			"latitude must be between -90 and 90", nil, map[string]any{"lat": lat})
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, NewAppErrorWithDetails(ErrCodeValidationInvalidLon,
			"longitude must be between -180 and 180", nil, map[string]any{"lon": lon})
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// StopPoint is an intermediate stop requested by the caller.
type StopPoint struct {
	Location string `json:"location" validate:"required"`
	Type     string `json:"type"` // stop, gas, food, rest
}

// Waypoint is a sampled point along a route with position, cumulative
// distance, and arrival estimate.
type Waypoint struct {
	Lat               float64   `json:"lat"`
	Lon               float64   `json:"lon"`
	Name              string    `json:"name,omitempty"`
	DistanceFromStart float64   `json:"distance_from_start"`
	ETAMinutes        int       `json:"eta_minutes"`
	ArrivalTime       time.Time `json:"arrival_time"`
}

// HourlyForecast is one hourly entry of a waypoint forecast.
type HourlyForecast struct {
	Time                string `json:"time"`
	Temperature         int    `json:"temperature"`
	Conditions          string `json:"conditions"`
	WindSpeed           string `json:"wind_speed"`
	PrecipitationChance *int   `json:"precipitation_chance,omitempty"`
}

// WeatherSnapshot is the point-in-time weather at a waypoint. It may be
// absent entirely (nil) when the provider fails; every consumer must
// tolerate that.
type WeatherSnapshot struct {
	Temperature     *int             `json:"temperature,omitempty"`
	TemperatureUnit string           `json:"temperature_unit,omitempty"`
	WindSpeed       string           `json:"wind_speed,omitempty"` // free text, e.g. "15 mph"
	WindDirection   string           `json:"wind_direction,omitempty"`
	Conditions      string           `json:"conditions,omitempty"` // free text
	Icon            string           `json:"icon,omitempty"`
	Humidity        *int             `json:"humidity,omitempty"`
	IsDaytime       bool             `json:"is_daytime"`
	Sunrise         string           `json:"sunrise,omitempty"`
	Sunset          string           `json:"sunset,omitempty"`
	HourlyForecast  []HourlyForecast `json:"hourly_forecast,omitempty"`
}

// TemperatureOr returns the snapshot temperature, or fallback when the
// snapshot or its temperature is missing.
func (w *WeatherSnapshot) TemperatureOr(fallback int) int {
	if w == nil || w.Temperature == nil {
		return fallback
	}
	return *w.Temperature
}

// AlertSeverity is the NWS alert severity scale.
type AlertSeverity string

const (
	SeverityMinor    AlertSeverity = "Minor"
	SeverityModerate AlertSeverity = "Moderate"
	SeveritySevere   AlertSeverity = "Severe"
	SeverityExtreme  AlertSeverity = "Extreme"
	SeverityUnknown  AlertSeverity = "Unknown"
)

// ParseAlertSeverity maps free-text severity to the known set, defaulting
// to Unknown.
func ParseAlertSeverity(s string) AlertSeverity {
	switch AlertSeverity(s) {
	case SeverityMinor, SeverityModerate, SeveritySevere, SeverityExtreme:
		return AlertSeverity(s)
	default:
		return SeverityUnknown
	}
}

// WeatherAlert is an active government weather alert covering a waypoint.
type WeatherAlert struct {
	ID          string        `json:"id"`
	Headline    string        `json:"headline"`
	Severity    AlertSeverity `json:"severity"`
	Event       string        `json:"event"`
	Description string        `json:"description"`
	Areas       string        `json:"areas,omitempty"`
}

// IsSevere reports whether the alert is Extreme or Severe.
func (a WeatherAlert) IsSevere() bool {
	return a.Severity == SeverityExtreme || a.Severity == SeveritySevere
}

// WaypointWeather aggregates one Waypoint with its optional snapshot and
// alerts. This is the unit consumed by every derived-analysis function.
type WaypointWeather struct {
	Waypoint Waypoint         `json:"waypoint"`
	Weather  *WeatherSnapshot `json:"weather,omitempty"`
	Alerts   []WeatherAlert   `json:"alerts"`
}

// RoadConditionTag is the discrete road-surface hazard class.
type RoadConditionTag string

const (
	RoadDry           RoadConditionTag = "dry"
	RoadWet           RoadConditionTag = "wet"
	RoadSlippery      RoadConditionTag = "slippery"
	RoadIcy           RoadConditionTag = "icy"
	RoadSnowCovered   RoadConditionTag = "snow_covered"
	RoadFlooded       RoadConditionTag = "flooded"
	RoadLowVisibility RoadConditionTag = "low_visibility"
	RoadDangerousWind RoadConditionTag = "dangerous_wind"
	RoadUnknown       RoadConditionTag = "unknown"
)

// RoadCondition is the derived surface classification for one waypoint.
// Severity runs 0 (good) to 4 (do not drive).
type RoadCondition struct {
	Condition      RoadConditionTag `json:"condition"`
	Severity       int              `json:"severity"`
	Label          string           `json:"label"`
	Icon           string           `json:"icon"`
	Color          string           `json:"color"`
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
}

// RiskLevel categorizes a SafetyScore.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskExtreme  RiskLevel = "extreme"
)

// SafetyScore is the 0-100 composite risk metric for a route.
type SafetyScore struct {
	OverallScore    int       `json:"overall_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	VehicleType     string    `json:"vehicle_type"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

// HazardAlert is a time-positioned warning about a condition expected at a
// point on the route.
type HazardAlert struct {
	Type           string  `json:"type"`     // wind, ice, visibility, rain, snow, alert
	Severity       string  `json:"severity"` // low, medium, high, extreme
	DistanceMiles  float64 `json:"distance_miles"`
	ETAMinutes     int     `json:"eta_minutes"`
	Message        string  `json:"message"`
	Recommendation string  `json:"recommendation"`
	CountdownText  string  `json:"countdown_text"`
}

// PackingSuggestion is one item the driver should bring.
type PackingSuggestion struct {
	Item     string `json:"item"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"` // essential, recommended, optional
}

// RestStop is a point of interest along the route with arrival weather.
type RestStop struct {
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	Lat                  float64 `json:"lat"`
	Lon                  float64 `json:"lon"`
	DistanceMiles        float64 `json:"distance_miles"`
	ETAMinutes           int     `json:"eta_minutes"`
	WeatherAtArrival     string  `json:"weather_at_arrival,omitempty"`
	TemperatureAtArrival *int    `json:"temperature_at_arrival,omitempty"`
	Recommendation       string  `json:"recommendation"`
}

// DepartureWindow is the optimal-departure heuristic output.
type DepartureWindow struct {
	DepartureTime     time.Time `json:"departure_time"`
	ArrivalTime       time.Time `json:"arrival_time"`
	SafetyScore       int       `json:"safety_score"`
	HazardCount       int       `json:"hazard_count"`
	Recommendation    string    `json:"recommendation"`
	ConditionsSummary string    `json:"conditions_summary"`
}

// TurnByTurnStep is one routing maneuver annotated with the nearest
// waypoint's derived conditions.
type TurnByTurnStep struct {
	Instruction     string         `json:"instruction"`
	DistanceMiles   float64        `json:"distance_miles"`
	DurationMinutes int            `json:"duration_minutes"`
	RoadName        string         `json:"road_name"`
	Maneuver        string         `json:"maneuver"`
	RoadCondition   *RoadCondition `json:"road_condition,omitempty"`
	WeatherAtStep   string         `json:"weather_at_step,omitempty"`
	Temperature     *int           `json:"temperature,omitempty"`
	HasAlert        bool           `json:"has_alert"`
}

// BridgeClearanceAlert warns about a low structure relative to the vehicle
// height supplied with the request.
type BridgeClearanceAlert struct {
	Location        string  `json:"location"`
	Lat             float64 `json:"latitude"`
	Lon             float64 `json:"longitude"`
	ClearanceFt     float64 `json:"clearance_ft"`
	VehicleHeightFt float64 `json:"vehicle_height_ft"`
	MarginFt        float64 `json:"margin_ft"`
	WarningLevel    string  `json:"warning_level"` // safe, caution, danger
	DistanceMiles   float64 `json:"distance_miles"`
	Highway         string  `json:"highway,omitempty"`
	Direction       string  `json:"direction,omitempty"`
	Message         string  `json:"message"`
}

// RouteWeatherResponse is the aggregate root produced once per request and
// persisted as an immutable record. It is never mutated after creation.
type RouteWeatherResponse struct {
	ID                   string                 `json:"id"`
	Origin               string                 `json:"origin"`
	Destination          string                 `json:"destination"`
	Stops                []StopPoint            `json:"stops"`
	DepartureTime        time.Time              `json:"departure_time"`
	TotalDurationMinutes int                    `json:"total_duration_minutes"`
	TotalDistanceMiles   float64                `json:"total_distance_miles"`
	RouteGeometry        string                 `json:"route_geometry"` // encoded polyline
	Waypoints            []WaypointWeather      `json:"waypoints"`
	AISummary            string                 `json:"ai_summary,omitempty"`
	HasSevereWeather     bool                   `json:"has_severe_weather"`
	PackingSuggestions   []PackingSuggestion    `json:"packing_suggestions"`
	WeatherTimeline      []HourlyForecast       `json:"weather_timeline"`
	CreatedAt            time.Time              `json:"created_at"`
	SafetyScore          *SafetyScore           `json:"safety_score,omitempty"`
	HazardAlerts         []HazardAlert          `json:"hazard_alerts"`
	RestStops            []RestStop             `json:"rest_stops"`
	OptimalDeparture     *DepartureWindow       `json:"optimal_departure,omitempty"`
	TruckerWarnings      []string               `json:"trucker_warnings"`
	VehicleType          string                 `json:"vehicle_type"`
	VehicleHeightFt      *float64               `json:"vehicle_height_ft,omitempty"`
	BridgeClearances     []BridgeClearanceAlert `json:"bridge_clearance_alerts"`
	TurnByTurn           []TurnByTurnStep       `json:"turn_by_turn"`
	RoadConditionSummary string                 `json:"road_condition_summary,omitempty"`
	WorstRoadCondition   string                 `json:"worst_road_condition,omitempty"`
	RerouteRecommended   bool                   `json:"reroute_recommended"`
	RerouteReason        string                 `json:"reroute_reason,omitempty"`
}

// SavedRoute is the shallow summary returned by history/favorites listings.
type SavedRoute struct {
	ID          string      `json:"id"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	Stops       []StopPoint `json:"stops"`
	Name        string      `json:"name,omitempty"`
	IsFavorite  bool        `json:"is_favorite"`
	CreatedAt   time.Time   `json:"created_at"`
}
