package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecast/internal/core"
	"routecast/internal/types"
)

// mockRouteService implements RouteServiceInterface with canned responses.
type mockRouteService struct {
	processResp *types.RouteWeatherResponse
	processErr  error
	processReq  types.RouteRequest

	getResp *types.RouteWeatherResponse
	getErr  error
	getID   string

	history   []types.SavedRoute
	favorites []types.SavedRoute

	savedFav  *types.SavedRoute
	saveErr   error
	deleteErr error
	deletedID string

	geocodeResult *types.GeocodeResult
	geocodeErr    error
}

func (m *mockRouteService) ProcessRoute(_ context.Context, req types.RouteRequest) (*types.RouteWeatherResponse, error) {
	m.processReq = req
	return m.processResp, m.processErr
}

func (m *mockRouteService) Get(_ context.Context, id string) (*types.RouteWeatherResponse, error) {
	m.getID = id
	return m.getResp, m.getErr
}

func (m *mockRouteService) History(_ context.Context) ([]types.SavedRoute, error) {
	return m.history, nil
}

func (m *mockRouteService) Favorites(_ context.Context) ([]types.SavedRoute, error) {
	return m.favorites, nil
}

func (m *mockRouteService) SaveFavorite(_ context.Context, req types.FavoriteRequest) (*types.SavedRoute, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.savedFav, nil
}

func (m *mockRouteService) DeleteFavorite(_ context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *mockRouteService) Geocode(_ context.Context, location string) (*types.GeocodeResult, error) {
	return m.geocodeResult, m.geocodeErr
}

func newTestRouter(svc RouteServiceInterface) http.Handler {
	h := NewRouteHandler(svc, core.NewValidator(), slog.Default())
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

// --- POST /v1/routes/weather ---

func TestHandleRouteWeather(t *testing.T) {
	svc := &mockRouteService{
		processResp: &types.RouteWeatherResponse{
			ID:          "rt_abc123",
			Origin:      "Denver, CO",
			Destination: "Kansas City, MO",
		},
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/weather",
		`{"origin":"Denver, CO","destination":"Kansas City, MO","vehicle_type":"semi","trucker_mode":true}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data types.RouteWeatherResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "rt_abc123", envelope.Data.ID)

	assert.Equal(t, types.VehicleSemi, svc.processReq.VehicleType)
	assert.True(t, svc.processReq.TruckerMode)
}

func TestHandleRouteWeatherMissingOrigin(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/weather",
		`{"destination":"Kansas City, MO"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_missing_required_field", errorCode(t, rec))
}

func TestHandleRouteWeatherUnknownVehicle(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/weather",
		`{"origin":"Denver, CO","destination":"Kansas City, MO","vehicle_type":"hovercraft"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_invalid_vehicle_type", errorCode(t, rec))
}

func TestHandleRouteWeatherMalformedBody(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/weather", `{"origin":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_invalid_body", errorCode(t, rec))
}

func TestHandleRouteWeatherServiceError(t *testing.T) {
	svc := &mockRouteService{
		processErr: types.NewAppError(types.ErrCodeValidationNoDrivableRoute,
			"no drivable route found between Denver, CO and Honolulu, HI", nil),
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/weather",
		`{"origin":"Denver, CO","destination":"Honolulu, HI"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_no_drivable_route", errorCode(t, rec))
}

// --- GET /v1/routes/{id} ---

func TestHandleGetRoute(t *testing.T) {
	svc := &mockRouteService{
		getResp: &types.RouteWeatherResponse{ID: "rt_abc123"},
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/v1/routes/rt_abc123", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rt_abc123", svc.getID)
}

func TestHandleGetRouteNotFound(t *testing.T) {
	svc := &mockRouteService{
		getErr: types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil),
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/v1/routes/rt_missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found_route", errorCode(t, rec))
}

// --- History and favorites ---

func TestHandleHistory(t *testing.T) {
	svc := &mockRouteService{
		history: []types.SavedRoute{
			{ID: "rt_2", Origin: "Denver, CO", Destination: "Kansas City, MO"},
			{ID: "rt_1", Origin: "Boulder, CO", Destination: "Santa Fe, NM"},
		},
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/v1/routes/history", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []types.SavedRoute `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "rt_2", envelope.Data[0].ID)
}

func TestHandleHistoryEmptyIsArray(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodGet, "/v1/routes/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHandleSaveFavorite(t *testing.T) {
	svc := &mockRouteService{
		savedFav: &types.SavedRoute{
			ID:          "rt_9",
			Origin:      "Denver, CO",
			Destination: "Moab, UT",
			Name:        "Weekend trip",
			IsFavorite:  true,
			CreatedAt:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		},
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/favorites",
		`{"origin":"Denver, CO","destination":"Moab, UT","name":"Weekend trip"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data types.SavedRoute `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "rt_9", envelope.Data.ID)
	assert.True(t, envelope.Data.IsFavorite)
}

func TestHandleSaveFavoriteMissingDestination(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodPost, "/v1/routes/favorites",
		`{"origin":"Denver, CO"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteFavorite(t *testing.T) {
	svc := &mockRouteService{}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodDelete, "/v1/routes/favorites/rt_9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rt_9", svc.deletedID)
	assert.Contains(t, rec.Body.String(), `"status":"deleted"`)
}

func TestHandleDeleteFavoriteNotFound(t *testing.T) {
	svc := &mockRouteService{
		deleteErr: types.NewAppError(types.ErrCodeNotFoundFavorite, "favorite not found", nil),
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodDelete, "/v1/routes/favorites/rt_missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found_favorite", errorCode(t, rec))
}

// --- POST /v1/geocode ---

func TestHandleGeocode(t *testing.T) {
	svc := &mockRouteService{
		geocodeResult: &types.GeocodeResult{Location: "Denver, CO", Lat: 39.7392, Lon: -104.9903},
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/geocode", `{"location":"Denver, CO"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data types.GeocodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.InDelta(t, 39.7392, envelope.Data.Lat, 1e-6)
}

func TestHandleGeocodeUnresolvable(t *testing.T) {
	svc := &mockRouteService{
		geocodeErr: types.NewAppError(types.ErrCodeNotFoundLocation,
			"location not found: Atlantis", nil),
	}
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/geocode", `{"location":"Atlantis"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found_location", errorCode(t, rec))
}

func TestHandleGeocodeMissingLocation(t *testing.T) {
	router := newTestRouter(&mockRouteService{})

	rec := doJSON(t, router, http.MethodPost, "/v1/geocode", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_missing_required_field", errorCode(t, rec))
}
