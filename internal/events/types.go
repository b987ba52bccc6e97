package events

import (
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// EventType represents the type of effect lifecycle event
type EventType string

const (
	EventTypeEffectCreated  EventType = "effect.created"
	EventTypeEffectSaved    EventType = "effect.saved"
	EventTypeEffectUpgraded EventType = "effect.upgraded"
	EventTypeEffectDeleted  EventType = "effect.deleted"
)

// Event is the base interface for all effect events
type Event interface {
	GetType() EventType
	GetSpellID() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type      EventType
	SpellID   string
	Cancelled bool
}

func (e *BaseEvent) GetType() EventType { return e.Type }
func (e *BaseEvent) GetSpellID() string { return e.SpellID }
func (e *BaseEvent) IsCancelled() bool  { return e.Cancelled }
func (e *BaseEvent) Cancel()            { e.Cancelled = true }

// EffectSavedEvent fires after a record is stored. Issues are the
// validation findings the record was saved with.
type EffectSavedEvent struct {
	BaseEvent
	Issues []dnderr.Issue
}

// EffectUpgradedEvent fires when the normalizer changed a stored record.
// Rewritten is false when the upgrade was only applied in memory on load.
type EffectUpgradedEvent struct {
	BaseEvent
	Rewritten bool
}

// NewEffectEvent creates an event that carries no payload
func NewEffectEvent(eventType EventType, spellID string) *BaseEvent {
	return &BaseEvent{Type: eventType, SpellID: spellID}
}
