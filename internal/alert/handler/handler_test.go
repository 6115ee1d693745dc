package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/composer"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/handler/mocks"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/service"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type AlertHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestAlertHandlerSuite(t *testing.T) {
	suite.Run(t, new(AlertHandlerSuite))
}

func (s *AlertHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func storedAlert(source models.Source) *models.Alert {
	number := "123456789012"
	return &models.Alert{
		ID:                uuid.MustParse("6d1f3a52-8a55-4b8e-9a3e-2f6b8f1c0a11"),
		Email:             "alice@example.com",
		Name:              "Alice",
		ContactNumber:     "9876543210",
		KYC:               models.KYC{Aadhaar: models.AadhaarKYC{Number: &number}},
		EmergencyContacts: []models.EmergencyContact{{Name: "Bob", Phone: "111", Relation: "brother"}},
		Locations:         []locmodels.ResolvedLocation{locmodels.Unresolved(28.6, 77.2)},
		Source:            source,
		CreatedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *AlertHandlerSuite) ownerRequest(method, path string, body any) *http.Request {
	return testutil.WithOwner(testutil.NewJSONRequest(s.T(), method, path, body), "alice@example.com")
}

func (s *AlertHandlerSuite) TestRecord() {
	s.Run("201 with original message and snake_case data", func() {
		body := map[string]any{
			"name":               "Alice",
			"contact_number":     "9876543210",
			"kyc":                map[string]any{"aadhaar": map[string]any{"number": "123456789012"}, "passport": map[string]any{"number": nil, "country": nil}},
			"emergency_contacts": []map[string]string{{"name": "Bob", "phone": "111", "relation": "brother"}},
			"locations":          []map[string]any{{"coordinates": map[string]any{"type": "Point", "coordinates": []float64{77.2, 28.6}}}},
		}
		s.service.EXPECT().
			Record(gomock.Any(), "alice@example.com", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, a models.Alert) (*models.Alert, error) {
				s.Equal("123456789012", *a.KYC.Aadhaar.Number)
				s.Nil(a.KYC.Passport.Number)
				s.Equal("111", a.EmergencyContacts[0].Phone)
				s.Equal(28.6, a.Locations[0].Coordinates.Latitude())
				return storedAlert(models.SourceRecorded), nil
			})

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic", body))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("Panic data stored successfully", (*resp)["message"])
		data := (*resp)["data"].(map[string]any)
		s.Equal("9876543210", data["contact_number"])
		kyc := data["kyc"].(map[string]any)
		passport := kyc["passport"].(map[string]any)
		s.Contains(passport, "number")
		s.Nil(passport["number"])
		contacts := data["emergency_contacts"].([]any)
		s.Equal("111", contacts[0].(map[string]any)["phone"])
	})

	s.Run("location without coordinates is rejected", func() {
		body := map[string]any{
			"name":           "Alice",
			"contact_number": "9876543210",
			"locations": []map[string]any{
				{"coordinates": map[string]any{"type": "Point", "coordinates": []float64{77.2, 28.6}}},
				{"state": "Delhi"},
				{"coordinates": map[string]any{"type": "Point"}},
				{"coordinates": map[string]any{"type": "Point", "coordinates": []float64{77.2}}},
			},
		}

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic", body))

		testutil.AssertFieldError(s.T(), rr, "locations-1-coordinates", "Coordinates are required.")
		testutil.AssertFieldError(s.T(), rr, "locations-2-coordinates", "Coordinates are required.")
		testutil.AssertFieldError(s.T(), rr, "locations-3-coordinates", "Coordinates must be [longitude, latitude].")
		resp := testutil.UnmarshalResponse[testutil.ErrorBody](s.T(), rr)
		s.NotContains(resp.Fields, "locations-0-coordinates")
	})

	s.Run("store failure is an opaque 500", func() {
		s.service.EXPECT().
			Record(gomock.Any(), "alice@example.com", gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("pq: timeout"), dErrors.CodeInternal, "Failed to save panic data"))

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic", map[string]any{"name": "Alice"}))

		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
		s.Empty(body.ErrorDescription)
	})
}

func (s *AlertHandlerSuite) TestTrigger() {
	s.Run("empty body uses stored state", func() {
		s.service.EXPECT().
			Trigger(gomock.Any(), "alice@example.com", service.TriggerInput{}).
			Return(storedAlert(models.SourceTriggered), nil)

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic/trigger", nil))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "message", "Panic data stored successfully")
	})

	s.Run("chunked empty body uses stored state", func() {
		s.service.EXPECT().
			Trigger(gomock.Any(), "alice@example.com", service.TriggerInput{}).
			Return(storedAlert(models.SourceTriggered), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/panic/trigger", io.NopCloser(strings.NewReader("")))
		req.Header.Set("Content-Type", "application/json")
		s.Require().EqualValues(-1, req.ContentLength)

		rr := testutil.DoRequest(s.router, testutil.WithOwner(req, "alice@example.com"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("malformed body is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.WithOwner(
			testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/panic/trigger", `{"latitude":`), "alice@example.com"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("coordinates are passed through", func() {
		s.service.EXPECT().
			Trigger(gomock.Any(), "alice@example.com", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, in service.TriggerInput) (*models.Alert, error) {
				s.Require().NotNil(in.Location)
				s.Equal(28.6, in.Location.Latitude)
				s.Equal(77.2, in.Location.Longitude)
				s.Nil(in.Identity)
				return storedAlert(models.SourceTriggered), nil
			})

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic/trigger", map[string]float64{"latitude": 28.6, "longitude": 77.2}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("half a coordinate pair is rejected", func() {
		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic/trigger", map[string]float64{"latitude": 28.6}))

		testutil.AssertFieldError(s.T(), rr, "location", "Latitude and longitude must be sent together.")
	})

	s.Run("missing identity is 422", func() {
		s.service.EXPECT().
			Trigger(gomock.Any(), "alice@example.com", gomock.Any()).
			Return(nil, composer.ErrMissingIdentity)

		rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodPost, "/api/panic/trigger", nil))

		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "missing_identity")
		s.Equal(composer.MessageMissingIdentity, body.ErrorDescription)
	})
}

func (s *AlertHandlerSuite) TestList() {
	s.service.EXPECT().
		List(gomock.Any(), "alice@example.com").
		Return([]*models.Alert{storedAlert(models.SourceTriggered)}, nil)

	rr := testutil.DoRequest(s.router, s.ownerRequest(http.MethodGet, "/api/panic", nil))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	alerts := testutil.UnmarshalResponse[[]models.Alert](s.T(), rr)
	s.Require().Len(*alerts, 1)
	s.Equal(models.SourceTriggered, (*alerts)[0].Source)
}

func (s *AlertHandlerSuite) TestUnauthenticated() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/panic", nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthenticated")
}
