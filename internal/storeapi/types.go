// Package storeapi holds the JSON shapes and paths shared by the store
// server and the store client.
package storeapi

// Paths, relative to the server root. Component ids are appended.
const (
	ComponentPath  = "/api/component/"
	ResetPath      = "/api/component/reset/"
	CreatePath     = "/api/component"
	ListPath       = "/api/components"
	HealthPath     = "/healthz"
	PreviewPath    = "/preview/"
	EditSocketPath = "/ws/edit/"
)

// Component is the GET and create response.
type Component struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// SaveRequest is the PUT body. Code is a pointer so a missing field can be
// told apart from an empty component.
type SaveRequest struct {
	Code *string `json:"code"`
}

// CreateRequest is the POST body for a new component.
type CreateRequest struct {
	ID   string  `json:"id,omitempty"`
	Code *string `json:"code"`
}

// SaveResponse is the PUT response.
type SaveResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ResetResponse is the reset response.
type ResetResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ListResponse is the component listing.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// ErrorResponse is every non-2xx body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Health is the health check body.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Backend string `json:"backend"`
}
