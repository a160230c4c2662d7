// Package db persists computed route responses and favorites in PostgreSQL.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/klauspost/compress/zstd"

	"routecast/internal/types"
)

// DBTX is the query surface RouteRepository needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the repository runs unchanged inside a transaction,
// and tests substitute a hand-rolled fake.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Listing limits. History and favorites are unbounded tables; listings are
// always capped server-side regardless of what the caller asks for.
const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// RouteRepository provides data access for the routes and route_favorites
// tables. It implements types.RouteStore.
//
// Full route payloads run to tens of kilobytes of JSON (hourly forecasts for
// every waypoint), so they are stored zstd-compressed in a bytea column.
// The columns surfaced in listings (origin, destination, stops, timestamps)
// are stored alongside so history queries never touch the payload.
type RouteRepository struct {
	db      DBTX
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ types.RouteStore = (*RouteRepository)(nil)

// NewRouteRepository creates a new RouteRepository backed by the given
// database connection (pool or transaction).
func NewRouteRepository(db DBTX) *RouteRepository {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		// Never fails with nil writer and default options.
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
	return &RouteRepository{db: db, encoder: encoder, decoder: decoder}
}

// Save persists a computed route response. Saves are append-only: replaying a
// save for an existing id is a no-op rather than an overwrite.
func (r *RouteRepository) Save(ctx context.Context, resp *types.RouteWeatherResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to encode route payload", err)
	}
	compressed := r.encoder.EncodeAll(payload, nil)

	stops, err := json.Marshal(resp.Stops)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to encode route stops", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO routes (
			id, origin, destination, stops,
			departure_time, has_severe_weather, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		resp.ID,
		resp.Origin,
		resp.Destination,
		stops,
		resp.DepartureTime,
		resp.HasSevereWeather,
		compressed,
		resp.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save route", err)
	}
	return nil
}

// Get retrieves a previously computed route response by id. Returns
// (nil, nil) when the id is unknown.
func (r *RouteRepository) Get(ctx context.Context, id string) (*types.RouteWeatherResponse, error) {
	var compressed []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM routes WHERE id = $1`, id,
	).Scan(&compressed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve route", err)
	}

	payload, err := r.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decompress route payload", err)
	}

	var resp types.RouteWeatherResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode route payload", err)
	}
	return &resp, nil
}

// ListRecent returns the newest computed routes, newest first. The favorite
// flag is derived from the route_favorites table.
func (r *RouteRepository) ListRecent(ctx context.Context, limit int) ([]types.SavedRoute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.origin, r.destination, r.stops, r.created_at,
			EXISTS (SELECT 1 FROM route_favorites f WHERE f.id = r.id) AS is_favorite
		 FROM routes r
		 ORDER BY r.created_at DESC
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list routes", err)
	}
	defer rows.Close()

	var results []types.SavedRoute
	for rows.Next() {
		var saved types.SavedRoute
		var stops []byte
		if err := rows.Scan(&saved.ID, &saved.Origin, &saved.Destination, &stops, &saved.CreatedAt, &saved.IsFavorite); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan route row", err)
		}
		if err := unmarshalStops(stops, &saved.Stops); err != nil {
			return nil, err
		}
		results = append(results, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating route rows", err)
	}
	return results, nil
}

// ListFavorites returns saved favorites, newest first.
func (r *RouteRepository) ListFavorites(ctx context.Context, limit int) ([]types.SavedRoute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, origin, destination, stops, name, created_at
		 FROM route_favorites
		 ORDER BY created_at DESC
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list favorites", err)
	}
	defer rows.Close()

	var results []types.SavedRoute
	for rows.Next() {
		saved := types.SavedRoute{IsFavorite: true}
		var stops []byte
		var name *string
		if err := rows.Scan(&saved.ID, &saved.Origin, &saved.Destination, &stops, &name, &saved.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan favorite row", err)
		}
		if name != nil {
			saved.Name = *name
		}
		if err := unmarshalStops(stops, &saved.Stops); err != nil {
			return nil, err
		}
		results = append(results, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating favorite rows", err)
	}
	return results, nil
}

// SaveFavorite upserts a favorite. Saving an existing id refreshes the name
// so renames do not require a delete/recreate round trip.
func (r *RouteRepository) SaveFavorite(ctx context.Context, fav types.SavedRoute) error {
	stops, err := json.Marshal(fav.Stops)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to encode favorite stops", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO route_favorites (id, origin, destination, stops, name, created_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		fav.ID,
		fav.Origin,
		fav.Destination,
		stops,
		nilIfEmpty(fav.Name),
		nilIfZeroTime(fav.CreatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save favorite", err)
	}
	return nil
}

// DeleteFavorite removes a favorite by id, reporting whether a row existed.
func (r *RouteRepository) DeleteFavorite(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM route_favorites WHERE id = $1`, id,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to delete favorite", err)
	}
	return tag.RowsAffected() > 0, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func unmarshalStops(raw []byte, dst *[]types.StopPoint) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to decode stored stops", err)
	}
	return nil
}

// nilIfEmpty maps "" to nil for nullable text columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nilIfZeroTime maps the zero time to nil so the column default applies.
func nilIfZeroTime(t interface{ IsZero() bool }) any {
	if t.IsZero() {
		return nil
	}
	return t
}
