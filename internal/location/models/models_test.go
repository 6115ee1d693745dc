package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

func TestNewPointIsLongitudeFirst(t *testing.T) {
	p := NewPoint(28.6, 77.2)
	assert.Equal(t, [2]float64{77.2, 28.6}, p.Coordinates)
	assert.Equal(t, 28.6, p.Latitude())
	assert.Equal(t, 77.2, p.Longitude())

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[77.2,28.6]}`, string(raw))
}

func TestUnresolvedOmitsResolvedAt(t *testing.T) {
	raw, err := json.Marshal(Unresolved(1, 2))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "resolved_at")
	assert.Contains(t, string(raw), `"detailed_address":"N/A"`)
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		fields   []string
	}{
		{name: "valid", lat: 28.6, lon: 77.2},
		{name: "edges", lat: -90, lon: 180},
		{name: "latitude out of range", lat: 91, lon: 0, fields: []string{"latitude"}},
		{name: "longitude out of range", lat: 0, lon: -180.5, fields: []string{"longitude"}},
		{name: "nan", lat: math.NaN(), lon: math.Inf(1), fields: []string{"latitude", "longitude"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, dErrors.CodeValidation, de.Code)
			for _, f := range tt.fields {
				assert.Contains(t, de.Fields, f)
			}
		})
	}
}
