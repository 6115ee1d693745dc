package testutil

import (
	"context"
	"net/http"

	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

// WithOwner adds an owner email to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithOwner(req *http.Request, owner string) *http.Request {
	if owner == "" {
		return req
	}
	return req.WithContext(requestcontext.WithOwner(req.Context(), owner))
}

// WithBearer sets the Authorization header for tests that run the full router.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
