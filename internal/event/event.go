package event

import (
	"time"

	"github.com/google/uuid"
)

// Event types, also used as routing keys
const (
	AssessmentCompleted    = "assessment.completed"
	AssessmentRegenerated  = "assessment.regenerated"
	AssessmentDeleted      = "assessment.deleted"
	OrganizationRegistered = "organization.registered"
	OrganizationDeleted    = "organization.deleted"
)

// Event is the envelope published to the exchange
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Version    string      `json:"version"`
	Payload    interface{} `json:"payload"`
}

// New stamps a payload with an id and timestamp
func New(eventType string, payload interface{}) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Version:    "1.0",
		Payload:    payload,
	}
}

// AssessmentPayload describes a scored or removed assessment
type AssessmentPayload struct {
	AssessmentID   string   `json:"assessment_id"`
	OrganizationID string   `json:"organization_id"`
	Level          int      `json:"level,omitempty"`
	MaturityLevel  *float64 `json:"maturity_level,omitempty"`
	MaturityLabel  string   `json:"maturity_label,omitempty"`
}

// OrganizationPayload describes a registered or removed organization
type OrganizationPayload struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	AccessCode     string `json:"access_code,omitempty"`
}
