// Package events publishes job lifecycle notifications to a message broker.
package events

import (
	"context"
	"time"
)

const (
	JobCreated       = "job.created"
	JobUpdated       = "job.updated"
	JobStatusChanged = "job.status_changed"
	JobDeleted       = "job.deleted"
)

// Event is the JSON body of a job notification. The routing key is Type.
type Event struct {
	Type           string    `json:"type"`
	JobID          string    `json:"job_id"`
	UserID         string    `json:"user_id"`
	Company        string    `json:"company,omitempty"`
	Position       string    `json:"position,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
