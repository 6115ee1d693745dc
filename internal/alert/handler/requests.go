package handler

import (
	"fmt"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/service"
	idmodels "github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

// RecordRequest is a panic alert composed on the device.
type RecordRequest struct {
	Email             string                    `json:"email"`
	Name              string                    `json:"name"`
	ContactNumber     string                    `json:"contact_number"`
	KYC               models.KYC                `json:"kyc"`
	EmergencyContacts []models.EmergencyContact `json:"emergency_contacts"`
	Locations         []RecordedLocation        `json:"locations"`
}

// RecordedLocation is a location as the device sends it. Coordinates stay
// raw so an omitted pair is not read as [0, 0].
type RecordedLocation struct {
	Coordinates     *RecordedPoint `json:"coordinates"`
	State           string         `json:"state"`
	City            string         `json:"city"`
	District        string         `json:"district"`
	PlaceID         string         `json:"place_id"`
	Type            string         `json:"type"`
	DetailedAddress string         `json:"detailed_address"`
	Postcode        string         `json:"postcode"`
}

type RecordedPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Validate requires every location to carry a [longitude, latitude] pair.
// Ranges and the rest of the alert are checked by the service.
func (r *RecordRequest) Validate() error {
	fields := map[string]string{}
	for i, loc := range r.Locations {
		key := fmt.Sprintf("locations-%d-coordinates", i)
		switch {
		case loc.Coordinates == nil || loc.Coordinates.Coordinates == nil:
			fields[key] = "Coordinates are required."
		case len(loc.Coordinates.Coordinates) != 2:
			fields[key] = "Coordinates must be [longitude, latitude]."
		}
	}
	if len(fields) > 0 {
		return dErrors.Validation("panic alert is invalid", fields)
	}
	return nil
}

func (r *RecordRequest) Alert() models.Alert {
	locations := make([]locmodels.ResolvedLocation, 0, len(r.Locations))
	for _, loc := range r.Locations {
		resolved := locmodels.ResolvedLocation{
			State:           loc.State,
			City:            loc.City,
			District:        loc.District,
			PlaceID:         loc.PlaceID,
			Type:            loc.Type,
			DetailedAddress: loc.DetailedAddress,
			Postcode:        loc.Postcode,
		}
		if p := loc.Coordinates; p != nil && len(p.Coordinates) == 2 {
			resolved.Coordinates = locmodels.Point{Type: p.Type, Coordinates: [2]float64{p.Coordinates[0], p.Coordinates[1]}}
		}
		locations = append(locations, resolved)
	}
	return models.Alert{
		Email:             r.Email,
		Name:              r.Name,
		ContactNumber:     r.ContactNumber,
		KYC:               r.KYC,
		EmergencyContacts: r.EmergencyContacts,
		Locations:         locations,
	}
}

// TriggerRequest optionally carries the device's identity snapshot and position.
type TriggerRequest struct {
	Identity  *idmodels.Submission `json:"identity"`
	Latitude  *float64             `json:"latitude"`
	Longitude *float64             `json:"longitude"`
}

func (r *TriggerRequest) Validate() error {
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return dErrors.Validation("invalid_coordinates", map[string]string{
			"location": "Latitude and longitude must be sent together.",
		})
	}
	return nil
}

func (r *TriggerRequest) Input() service.TriggerInput {
	in := service.TriggerInput{Identity: r.Identity}
	if r.Latitude != nil && r.Longitude != nil {
		in.Location = &service.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return in
}

// Envelope is the {message, data} response shape the clients expect.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
