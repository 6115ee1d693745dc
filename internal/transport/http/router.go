// Package httptransport assembles the chi router: shared middleware, the
// authenticated API, operator routes and the health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	alerthandler "github.com/vishvendra9627/tourist-safety-app/internal/alert/handler"
	identityhandler "github.com/vishvendra9627/tourist-safety-app/internal/identity/handler"
	locationhandler "github.com/vishvendra9627/tourist-safety-app/internal/location/handler"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/httputil"
	adminmw "github.com/vishvendra9627/tourist-safety-app/pkg/platform/middleware/admin"
	authmw "github.com/vishvendra9627/tourist-safety-app/pkg/platform/middleware/auth"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/middleware/metadata"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/middleware/request"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck probes one backing service for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the handlers and settings the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Validator      authmw.JWTValidator
	AdminToken     string
	RequestTimeout time.Duration

	Identity *identityhandler.Handler
	Location *locationhandler.Handler
	Alert    *alerthandler.Handler

	HealthChecks []HealthCheck
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(request.Logger(d.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(d.HealthChecks))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(d.Validator, d.Logger))
			if d.Identity != nil {
				d.Identity.Register(r)
			}
			if d.Location != nil {
				d.Location.Register(r)
			}
			if d.Alert != nil {
				d.Alert.Register(r)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
			if d.Identity != nil {
				d.Identity.RegisterAdmin(r)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
