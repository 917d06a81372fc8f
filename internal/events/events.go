// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"greenviz_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// ProjectGenerated is published when a visualization sequence completes
// successfully.
type ProjectGenerated struct {
	BaseEvent
	ProjectID uuid.UUID `json:"projectId"`
	Location  string    `json:"location"`
	TotalMin  int       `json:"totalMin"`
	TotalMax  int       `json:"totalMax"`
}

func (e ProjectGenerated) EventName() string { return "projects.generated" }

// LeadCaptured is published when an email unlock succeeds.
type LeadCaptured struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	ProjectID uuid.UUID `json:"projectId"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
}

func (e LeadCaptured) EventName() string { return "projects.lead_captured" }
