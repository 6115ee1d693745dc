package audit

import "time"

// Action names the audited operation.
type Action string

const (
	ActionIdentityCreated   Action = "identity_created"
	ActionIdentityDeleted   Action = "identity_deleted"
	ActionPanicAlertCreated Action = "panic_alert_created"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Owner is the email the affected record belongs to.
	Owner string `json:"owner"`
	// ResourceID is the identity or alert id.
	ResourceID string `json:"resource_id,omitempty"`
	// Subject and TokenID identify the bearer token that authorized the action.
	Subject    string `json:"subject,omitempty"`
	TokenID    string `json:"token_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	// Device is the "Browser on OS" label of the caller.
	Device string `json:"device,omitempty"`
	Mobile bool   `json:"mobile,omitempty"`
	// Source distinguishes client-composed ("recorded") from server-composed ("triggered") alerts.
	Source string `json:"source,omitempty"`
	// HasLocation is set on alert events when a resolved location was attached.
	HasLocation bool `json:"has_location,omitempty"`
}
