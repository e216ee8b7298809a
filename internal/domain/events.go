package domain

import (
	"context"
	"time"
)

// EventType names a notification pushed to a user
type EventType string

const (
	EventApplicationCreated   EventType = "application.created"
	EventApplicationReviewed  EventType = "application.reviewed"
	EventApplicationWithdrawn EventType = "application.withdrawn"
	EventRosterAdded          EventType = "roster.added"
	EventRosterRemoved        EventType = "roster.removed"
)

// Event is a notification about an application or roster change
type Event struct {
	Type          EventType `json:"type"`
	ApplicationID string    `json:"applicationId,omitempty"`
	JobID         string    `json:"jobId,omitempty"`
	CraftworkerID string    `json:"craftworkerId,omitempty"`
	ProviderID    string    `json:"providerId,omitempty"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EventPublisher delivers events to a user's open connections
type EventPublisher interface {
	Publish(ctx context.Context, userID string, ev Event) error
}
