package models

import (
	"fmt"
	"math"
	"time"

	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

// NotAvailable fills any address component the geocoder did not return.
const NotAvailable = "N/A"

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `json:"type" msgpack:"type"`
	Coordinates [2]float64 `json:"coordinates" msgpack:"coordinates"`
}

// NewPoint builds a point from latitude and longitude, in that argument order.
func NewPoint(lat, lon float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

func (p Point) Latitude() float64  { return p.Coordinates[1] }
func (p Point) Longitude() float64 { return p.Coordinates[0] }

// ResolvedLocation is a coordinate pair plus best-effort address components.
type ResolvedLocation struct {
	Coordinates     Point  `json:"coordinates" msgpack:"coordinates"`
	State           string `json:"state" msgpack:"state"`
	City            string `json:"city" msgpack:"city"`
	District        string `json:"district" msgpack:"district"`
	PlaceID         string `json:"place_id" msgpack:"place_id"`
	Type            string `json:"type" msgpack:"type"`
	DetailedAddress string `json:"detailed_address" msgpack:"detailed_address"`
	Postcode        string `json:"postcode" msgpack:"postcode"`
	// ResolvedAt is the server time the components were looked up.
	ResolvedAt time.Time `json:"resolved_at,omitzero" msgpack:"resolved_at"`
}

// Unresolved returns a location for (lat, lon) with every component set to NotAvailable.
func Unresolved(lat, lon float64) ResolvedLocation {
	return ResolvedLocation{
		Coordinates:     NewPoint(lat, lon),
		State:           NotAvailable,
		City:            NotAvailable,
		District:        NotAvailable,
		PlaceID:         NotAvailable,
		Type:            NotAvailable,
		DetailedAddress: NotAvailable,
		Postcode:        NotAvailable,
	}
}

// Sample is one position report from a device.
type Sample struct {
	Owner      string
	Latitude   float64
	Longitude  float64
	ReceivedAt time.Time
}

// ValidateCoordinates checks WGS84 ranges. NaN and infinities are rejected.
func ValidateCoordinates(lat, lon float64) error {
	fields := map[string]string{}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		fields["latitude"] = fmt.Sprintf("Latitude must be between -90 and 90, got %v.", lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		fields["longitude"] = fmt.Sprintf("Longitude must be between -180 and 180, got %v.", lon)
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid_coordinates", fields)
	}
	return nil
}
