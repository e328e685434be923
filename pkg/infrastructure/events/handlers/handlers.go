// Package handlers holds the event subscribers that keep side effects out of
// the use cases: the audit trail, metrics and outbound notification delivery.
package handlers

import (
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
)

// Subscriber is an event handler that knows which event types it wants
type Subscriber interface {
	events.EventHandler
	Types() []string
}

// Register subscribes every handler to its own event types
func Register(store events.EventStore, subs ...Subscriber) error {
	for _, s := range subs {
		if err := store.Subscribe(s.Types(), s); err != nil {
			return err
		}
	}
	return nil
}

func handles(types []string, eventType string) bool {
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}
