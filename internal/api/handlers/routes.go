// Package handlers contains the HTTP handler implementations for the
// Routecast API. It covers:
//   - Route weather computation (POST /v1/routes/weather)
//   - Route retrieval (GET /v1/routes/{id})
//   - Route history (GET /v1/routes/history)
//   - Favorites CRUD (GET/POST /v1/routes/favorites, DELETE /v1/routes/favorites/{id})
//   - Geocoding (POST /v1/geocode)
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"routecast/internal/core"
	"routecast/internal/types"
)

// RouteServiceInterface defines the service contract for the route handler.
// Defined locally to avoid tight coupling per the handler injection pattern.
type RouteServiceInterface interface {
	ProcessRoute(ctx context.Context, req types.RouteRequest) (*types.RouteWeatherResponse, error)
	Get(ctx context.Context, id string) (*types.RouteWeatherResponse, error)
	History(ctx context.Context) ([]types.SavedRoute, error)
	Favorites(ctx context.Context) ([]types.SavedRoute, error)
	SaveFavorite(ctx context.Context, req types.FavoriteRequest) (*types.SavedRoute, error)
	DeleteFavorite(ctx context.Context, id string) error
	Geocode(ctx context.Context, location string) (*types.GeocodeResult, error)
}

// RouteHandler maps HTTP requests to route-weather service methods.
type RouteHandler struct {
	service   RouteServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewRouteHandler creates a new RouteHandler with the provided dependencies.
func NewRouteHandler(svc RouteServiceInterface, val *core.Validator, logger *slog.Logger) *RouteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the route endpoints onto the /v1 router.
func (h *RouteHandler) RegisterRoutes(r chi.Router) {
	r.Route("/routes", func(r chi.Router) {
		r.Post("/weather", h.HandleRouteWeather)
		r.Get("/history", h.HandleHistory)
		r.Get("/favorites", h.HandleListFavorites)
		r.Post("/favorites", h.HandleSaveFavorite)
		r.Delete("/favorites/{id}", h.HandleDeleteFavorite)
		r.Get("/{id}", h.HandleGetRoute)
	})
	r.Post("/geocode", h.HandleGeocode)
}

// HandleRouteWeather handles POST /v1/routes/weather. This is the primary
// operation: it runs the full pipeline and returns the aggregate response.
func (h *RouteHandler) HandleRouteWeather(w http.ResponseWriter, r *http.Request) {
	var req types.RouteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.VehicleType != "" && !types.IsKnownVehicleType(req.VehicleType) {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidVehicle,
			"unknown vehicle type: "+string(req.VehicleType), nil))
		return
	}

	resp, err := h.service.ProcessRoute(r.Context(), req)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// HandleGetRoute handles GET /v1/routes/{id}.
func (h *RouteHandler) HandleGetRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// HandleHistory handles GET /v1/routes/history.
func (h *RouteHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	routes, err := h.service.History(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if routes == nil {
		routes = []types.SavedRoute{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: routes})
}

// HandleListFavorites handles GET /v1/routes/favorites.
func (h *RouteHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.service.Favorites(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if favorites == nil {
		favorites = []types.SavedRoute{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: favorites})
}

// HandleSaveFavorite handles POST /v1/routes/favorites.
func (h *RouteHandler) HandleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	var req types.FavoriteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	fav, err := h.service.SaveFavorite(r.Context(), req)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: fav})
}

// HandleDeleteFavorite handles DELETE /v1/routes/favorites/{id}.
func (h *RouteHandler) HandleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteFavorite(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"status": "deleted", "id": id}})
}

// HandleGeocode handles POST /v1/geocode.
func (h *RouteHandler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	var req types.GeocodeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Geocode(r.Context(), req.Location)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}
