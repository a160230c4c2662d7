package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecast/internal/types"
)

func newPlacesTestClient(srv *httptest.Server) *GooglePlacesClient {
	return NewGooglePlacesClient(srv.Client(), types.SecretString("places-key"), "routecast-test", WithPlacesBaseURL(srv.URL))
}

func TestPlacesNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "places-key", q.Get("key"))
		assert.Equal(t, "rest stop", q.Get("keyword"))
		assert.Equal(t, "8000", q.Get("radius"))

		// Second result is closer to the search point than the first.
		w.Write([]byte(`{"status":"OK","results":[
			{"name":"Far Travel Plaza","vicinity":"I-70 Exit 49","geometry":{"location":{"lat":39.80,"lng":-104.90}}},
			{"name":"Near Rest Area","vicinity":"I-70 Exit 12","geometry":{"location":{"lat":39.7400,"lng":-104.9905}}}
		]}`))
	}))
	defer srv.Close()

	results, err := newPlacesTestClient(srv).Nearby(context.Background(),
		types.Coordinate{Lat: 39.7392, Lon: -104.9903}, "rest stop", 8000)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Near Rest Area", results[0].Name)
	assert.Equal(t, "I-70 Exit 12", results[0].Address)
	assert.Equal(t, "Far Travel Plaza", results[1].Name)
	assert.Less(t, results[0].DistanceMiles, results[1].DistanceMiles)
}

func TestPlacesNearbyZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	results, err := newPlacesTestClient(srv).Nearby(context.Background(),
		types.Coordinate{Lat: 39.74, Lon: -104.99}, "rest stop", 8000)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPlacesNearbyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer srv.Close()

	_, err := newPlacesTestClient(srv).Nearby(context.Background(),
		types.Coordinate{Lat: 39.74, Lon: -104.99}, "rest stop", 8000)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamPlaces, appErr.Code)
	assert.Contains(t, appErr.Message, "REQUEST_DENIED")
}

func TestPlacesNearbyUnnamedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":39.74,"lng":-104.99}}}]}`))
	}))
	defer srv.Close()

	results, err := newPlacesTestClient(srv).Nearby(context.Background(),
		types.Coordinate{Lat: 39.74, Lon: -104.99}, "", 8000)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Unknown", results[0].Name)
}
