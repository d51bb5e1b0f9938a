package audit

import (
	"encoding/json"
	"time"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindAPI is a caller of the HTTP API.
	ActorKindAPI ActorKind = "api"
	// ActorKindSystem represents internal automated actions such as bill runs.
	ActorKindSystem ActorKind = "system"
)

// Log is one recorded action.
type Log struct {
	ID           int64           `json:"id"`
	ActorKind    ActorKind       `json:"actor_kind"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Route        *string         `json:"route,omitempty"`
	Status       int             `json:"status"`
	IP           *string         `json:"ip,omitempty"`
	UserAgent    *string         `json:"user_agent,omitempty"`
	RequestID    *string         `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Filter narrows List results.
type Filter struct {
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
