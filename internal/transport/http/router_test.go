package httptransport

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

	"github.com/stretchr/testify/suite"

	alerthandler "github.com/vishvendra9627/tourist-safety-app/internal/alert/handler"
	alertservice "github.com/vishvendra9627/tourist-safety-app/internal/alert/service"
	alertstore "github.com/vishvendra9627/tourist-safety-app/internal/alert/store"
	"github.com/vishvendra9627/tourist-safety-app/internal/audit"
	identityhandler "github.com/vishvendra9627/tourist-safety-app/internal/identity/handler"
	identityservice "github.com/vishvendra9627/tourist-safety-app/internal/identity/service"
	identitystore "github.com/vishvendra9627/tourist-safety-app/internal/identity/store"
	jwttoken "github.com/vishvendra9627/tourist-safety-app/internal/jwt_token"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/geocoder"
	locationhandler "github.com/vishvendra9627/tourist-safety-app/internal/location/handler"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/resolver"
	locationservice "github.com/vishvendra9627/tourist-safety-app/internal/location/service"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/tracker"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/watch"
	"github.com/vishvendra9627/tourist-safety-app/pkg/testutil"
)

const adminToken = "operator-secret"

type delhiGeocoder struct{}

func (delhiGeocoder) ReverseGeocode(context.Context, float64, float64) (geocoder.Result, error) {
	return geocoder.Result{Places: []geocoder.Place{{
		PlaceID:          "place-1",
		FormattedAddress: "Rajpath, New Delhi",
		Types:            []string{"route"},
		AddressComponents: []geocoder.Component{
			{LongName: "Delhi", Types: []string{"administrative_area_level_1"}},
			{LongName: "New Delhi", Types: []string{"locality"}},
		},
	}}}, nil
}

type RouterSuite struct {
	suite.Suite
	router   http.Handler
	jwt      *jwttoken.JWTService
	alerts   *alertstore.InMemoryStore
	auditLog *audit.InMemoryStore
	healthy  error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("test-signing-key", "tourist-safety", "tourist-safety-app")
	s.auditLog = audit.NewInMemoryStore()
	publisher := audit.NewPublisher(s.auditLog, audit.WithLogger(logger))
	s.healthy = nil

	identities := identityservice.New(identitystore.NewInMemory(), identityservice.WithAuditPublisher(publisher))
	locations := locationservice.New(watch.NewFeed(), tracker.NewInMemory(), resolver.New(delhiGeocoder{}))
	s.alerts = alertstore.NewInMemory()
	alerts := alertservice.New(s.alerts, identities, locations, alertservice.WithAuditPublisher(publisher))

	s.router = NewRouter(Deps{
		Logger:         logger,
		Validator:      jwttoken.NewJWTServiceAdapter(s.jwt),
		AdminToken:     adminToken,
		RequestTimeout: 5 * time.Second,
		Identity:       identityhandler.New(identities, logger),
		Location:       locationhandler.New(locations, logger),
		Alert:          alerthandler.New(alerts, logger),
		HealthChecks: []HealthCheck{{Name: "postgres", Check: func(context.Context) error {
			return s.healthy
		}}},
	})
}

func (s *RouterSuite) bearer(email string) string {
	token, err := s.jwt.GenerateAccessToken(email, "uid-"+email, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, email string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if email != "" {
		req = testutil.WithBearer(req, s.bearer(email))
	}
	return testutil.DoRequest(s.router, req)
}

func aliceForm() map[string]any {
	return map[string]any{
		"name": "Alice", "contactInfo": "9876543210",
		"kyc": "aadhaar", "aadhaarNumber": "123456789012",
		"emergencyContacts": []map[string]string{{"name": "Bob", "contact": "111", "relation": "brother"}},
	}
}

func (s *RouterSuite) TestHealthz() {
	rr := s.do(http.MethodGet, "/healthz", "", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.healthy = errors.New("connection refused")
	rr = s.do(http.MethodGet, "/healthz", "", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	rr := s.do(http.MethodGet, "/healthz", "", nil)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestAuthGate() {
	s.Run("missing token", func() {
		rr := s.do(http.MethodGet, "/api/digital-id", "", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthenticated")
	})

	s.Run("foreign signature", func() {
		other := jwttoken.NewJWTService("another-key", "tourist-safety", "tourist-safety-app")
		token, err := other.GenerateAccessToken("alice@example.com", "uid", time.Hour)
		s.Require().NoError(err)
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/digital-id", nil), token)

		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "invalid_credential")
	})
}

func (s *RouterSuite) TestNonJSONBodyIsRejected() {
	req := httptest.NewRequest(http.MethodPost, "/api/digital-id", strings.NewReader("name=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithBearer(req, s.bearer("alice@example.com"))

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *RouterSuite) TestPanicFlow() {
	rr := s.do(http.MethodPost, "/api/panic/trigger", "alice@example.com", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "missing_identity")
	s.Zero(s.alerts.Count())

	rr = s.do(http.MethodPost, "/api/digital-id", "alice@example.com", aliceForm())
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "message", "Digital ID saved")

	rr = s.do(http.MethodPost, "/api/location/resolve", "alice@example.com", map[string]float64{"latitude": 28.6, "longitude": 77.2})
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "state", "Delhi")

	rr = s.do(http.MethodPost, "/api/panic/trigger", "alice@example.com", map[string]float64{"latitude": 28.6, "longitude": 77.2})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("Panic data stored successfully", (*resp)["message"])
	data := (*resp)["data"].(map[string]any)
	loc := data["locations"].([]any)[0].(map[string]any)
	point := loc["coordinates"].(map[string]any)
	s.Equal([]any{77.2, 28.6}, point["coordinates"])
	s.Equal("New Delhi", loc["city"])
	contact := data["emergency_contacts"].([]any)[0].(map[string]any)
	s.Equal("111", contact["phone"])
	s.Equal("alice@example.com", data["email"])

	rr = s.do(http.MethodGet, "/api/panic", "alice@example.com", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	alerts := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
	s.Len(*alerts, 1)

	rr = s.do(http.MethodGet, "/api/panic", "bob@example.com", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("[]\n", rr.Body.String())

	s.Eventually(func() bool {
		events, _ := s.auditLog.ListByOwner(context.Background(), "alice@example.com")
		return len(events) == 2
	}, time.Second, 10*time.Millisecond)
}

func (s *RouterSuite) TestLocationCurrentWithoutReports() {
	rr := s.do(http.MethodGet, "/api/location", "alice@example.com", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = s.do(http.MethodPost, "/api/location", "alice@example.com", map[string]float64{"latitude": 28.6, "longitude": 77.2})
	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
}

func (s *RouterSuite) TestDeleteTwice() {
	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/api/digital-id", "alice@example.com", aliceForm()), http.StatusCreated)

	rr := s.do(http.MethodDelete, "/api/digital-id", "alice@example.com", map[string]string{"email": "alice@example.com"})
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "message", "Digital ID deleted successfully")

	rr = s.do(http.MethodDelete, "/api/digital-id", "alice@example.com", map[string]string{"email": "alice@example.com"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = s.do(http.MethodDelete, "/api/digital-id", "alice@example.com", map[string]string{})
	body := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	s.Equal("Email is required to delete digital ID", body.ErrorDescription)
}

func (s *RouterSuite) TestAdminListing() {
	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/api/digital-id", "alice@example.com", aliceForm()), http.StatusCreated)

	rr := s.do(http.MethodGet, "/admin/digital-ids", "alice@example.com", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/digital-ids", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	records := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
	s.Len(*records, 1)
}
