package service

import (
	"context"

	"digitalmaturity/internal/event"
	"digitalmaturity/internal/logger"
)

// Live update message types
const (
	MsgAssessmentCompleted   = "assessment_completed"
	MsgAssessmentRegenerated = "assessment_regenerated"
	MsgAssessmentDeleted     = "assessment_deleted"
	MsgOrganizationDeleted   = "organization_deleted"
	MsgProgressSaved         = "progress_saved"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
	BroadcastToOrganization(orgID string, msgType string, payload interface{})
}

// notifier fans a domain change out to the event bus and live clients.
// Both sinks are best effort: failures are logged, never returned.
type notifier struct {
	publisher   event.Publisher
	broadcaster Broadcaster
	log         *logger.Logger
}

func (n *notifier) publish(ctx context.Context, eventType string, payload interface{}) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(context.WithoutCancel(ctx), event.New(eventType, payload)); err != nil {
		n.log.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

func (n *notifier) toAdmins(msgType string, payload interface{}) {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastToAdmins(msgType, payload)
	}
}

func (n *notifier) toOrganization(orgID, msgType string, payload interface{}) {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastToOrganization(orgID, msgType, payload)
	}
}
