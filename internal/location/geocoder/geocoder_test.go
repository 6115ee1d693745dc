package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "status": "OK",
  "results": [{
    "place_id": "ChIJL_P_CXMEDTkRw0ZdG-0GVvw",
    "formatted_address": "Rajpath, New Delhi, Delhi 110001, India",
    "types": ["route"],
    "address_components": [
      {"long_name": "New Delhi", "short_name": "New Delhi", "types": ["locality", "political"]},
      {"long_name": "Delhi", "short_name": "DL", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "110001", "short_name": "110001", "types": ["postal_code"]}
    ]
  }]
}`

func TestGoogleReverseGeocode(t *testing.T) {
	t.Run("sends latlng and key", func(t *testing.T) {
		var gotLatLng, gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLatLng = r.URL.Query().Get("latlng")
			gotKey = r.URL.Query().Get("key")
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		g := NewGoogle("secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
		res, err := g.ReverseGeocode(context.Background(), 28.6, 77.2)

		require.NoError(t, err)
		assert.Equal(t, "28.6,77.2", gotLatLng)
		assert.Equal(t, "secret", gotKey)
		require.Len(t, res.Places, 1)
		assert.Equal(t, "ChIJL_P_CXMEDTkRw0ZdG-0GVvw", res.Places[0].PlaceID)
		assert.Len(t, res.Places[0].AddressComponents, 3)
	})

	t.Run("zero results is empty not error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		}))
		defer srv.Close()

		res, err := NewGoogle("k", WithBaseURL(srv.URL)).ReverseGeocode(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.True(t, res.Empty())
	})

	t.Run("denied status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
		}))
		defer srv.Close()

		_, err := NewGoogle("bad", WithBaseURL(srv.URL)).ReverseGeocode(context.Background(), 0, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REQUEST_DENIED")
	})

	t.Run("http failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewGoogle("k", WithBaseURL(srv.URL)).ReverseGeocode(context.Background(), 0, 0)
		require.Error(t, err)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewGoogle("k", WithBaseURL(srv.URL)).ReverseGeocode(context.Background(), 0, 0)
		require.Error(t, err)
	})

	t.Run("context cancellation aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewGoogle("k", WithBaseURL("http://127.0.0.1:1")).ReverseGeocode(ctx, 0, 0)
		require.Error(t, err)
	})
}
