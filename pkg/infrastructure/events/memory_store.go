package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultRetention bounds how many events the in-memory log keeps
const DefaultRetention = 10000

// InMemoryEventStore keeps a bounded event log and dispatches each appended
// event to its subscribers before AppendEvent returns. Handler errors are
// logged and never reach the publisher.
type InMemoryEventStore struct {
	streams     map[string][]Event
	versions    map[string]int
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	// offset is the absolute position of allEvents[0]
	offset    int
	allEvents []Event
	retention int
	logger    zerolog.Logger
}

func NewInMemoryEventStore(logger zerolog.Logger) *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		versions:    make(map[string]int),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		retention:   DefaultRetention,
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		if err := s.AppendEvent(ctx, e.StreamID(), e); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, streamID string, event Event) error {
	s.mutex.Lock()

	s.versions[streamID]++
	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: s.versions[streamID],
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	if len(s.allEvents) > s.retention {
		s.trim()
	}
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.mutex.Unlock()

	s.notifySubscribers(ctx, eventWithVersion, handlers)
	return nil
}

// trim drops the oldest half of the global log; callers hold the lock.
// Stream version counters survive so a trimmed stream keeps counting up.
func (s *InMemoryEventStore) trim() {
	drop := len(s.allEvents) / 2
	for _, e := range s.allEvents[:drop] {
		stream := s.streams[e.StreamID()]
		if len(stream) > 0 {
			s.streams[e.StreamID()] = stream[1:]
		}
		if len(s.streams[e.StreamID()]) == 0 {
			delete(s.streams, e.StreamID())
		}
	}
	s.allEvents = append([]Event(nil), s.allEvents[drop:]...)
	s.offset += drop
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	var out []Event
	for _, e := range events {
		if e.Version() >= fromVersion {
			out = append(out, e)
		}
	}
	if out == nil {
		return []Event{}, nil
	}
	return out, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	idx := fromPosition - s.offset
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[idx:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) notifySubscribers(ctx context.Context, event Event, handlers []EventHandler) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("event", event.Type()).
				Str("stream", event.StreamID()).
				Msg("event handler failed")
		}
	}
}
