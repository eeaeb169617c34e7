package messagequeue

// Actions carried by change notifications.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionToggled  = "toggled"
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// ProjectsUpdatedPayload is the schema for projects.updated messages.
type ProjectsUpdatedPayload struct {
	ProjectID string `json:"project_id"`
	Action    string `json:"action"`
	Version   int    `json:"version"`
	IsActive  bool   `json:"is_active"`
}

// RequestsUpdatedPayload is the schema for requests.updated messages.
type RequestsUpdatedPayload struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Pending   int    `json:"pending"`
}
