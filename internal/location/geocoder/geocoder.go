// Package geocoder talks to the Google Geocoding API for reverse lookups.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Component is one address component, e.g. a locality or postal code.
type Component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Place is one candidate match.
type Place struct {
	AddressComponents []Component `json:"address_components"`
	FormattedAddress  string      `json:"formatted_address"`
	PlaceID           string      `json:"place_id"`
	Types             []string    `json:"types"`
}

// Result is a reverse geocoding response. An empty Places means nothing matched.
type Result struct {
	Places []Place
}

// Empty reports whether the lookup matched nothing.
func (r Result) Empty() bool {
	return len(r.Places) == 0
}

// Client resolves coordinates to places.
type Client interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Result, error)
}

// Status values returned by the Geocoding API.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// DefaultBaseURL is the public Geocoding endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google is a Client backed by the Google Geocoding JSON API.
type Google struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures Google.
type Option func(*Google)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Google) {
		g.http = c
	}
}

// WithBaseURL points the client at another endpoint; tests use httptest servers.
func WithBaseURL(u string) Option {
	return func(g *Google) {
		g.baseURL = u
	}
}

func NewGoogle(apiKey string, opts ...Option) *Google {
	g := &Google{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type apiResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
}

// ReverseGeocode calls GET {base}?latlng=lat,lon&key=KEY. ZERO_RESULTS is an
// empty Result, not an error.
func (g *Google) ReverseGeocode(ctx context.Context, lat, lon float64) (Result, error) {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode geocode response: %w", err)
	}

	switch body.Status {
	case StatusOK:
		return Result{Places: body.Results}, nil
	case StatusZeroResults:
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("geocode status %s: %s", body.Status, body.ErrorMessage)
	}
}
