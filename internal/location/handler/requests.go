package handler

import (
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

// CoordinatesRequest is {latitude, longitude}. Pointers distinguish a missing
// field from a zero coordinate.
type CoordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *CoordinatesRequest) Validate() error {
	fields := map[string]string{}
	if r.Latitude == nil {
		fields["latitude"] = "Latitude is required."
	}
	if r.Longitude == nil {
		fields["longitude"] = "Longitude is required."
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid_coordinates", fields)
	}
	return nil
}

type Envelope struct {
	Message string `json:"message"`
}
