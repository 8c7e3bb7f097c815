// Package events provides an in-process scoped subscription hub for view
// notifications. It supports publish/subscribe with NATS-style subject
// wildcards but delivers synchronously on the publisher's goroutine: the UI
// is single-threaded and handlers must observe state in call order.
package events

import (
	"errors"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ErrClosed is returned when operating on a closed hub or subscription.
var ErrClosed = errors.New("events: hub closed")

// View notification subjects. Each carries the documented payload.
const (
	// SubjectConfigChanged fires after any view configuration change.
	// Payload: hostview.Config (the new configuration).
	SubjectConfigChanged = "view.config"

	// SubjectScrollChanged fires after the scroll position moves.
	// Payload: int (the new scroll top in host units).
	SubjectScrollChanged = "view.scroll"

	// SubjectModelChanged fires when the document model is replaced or
	// removed. Payload: string (the new model id, empty when removed).
	SubjectModelChanged = "view.model"

	// SubjectLayoutChanged fires after viewport geometry changes.
	// Payload: nil.
	SubjectLayoutChanged = "view.layout"
)

// Event is a published notification.
type Event struct {
	Subject string
	Payload any
}

// Handler processes a notification. Handlers run synchronously during
// Publish and must not block.
type Handler func(Event)

// Subscription is an active registration that can be released.
type Subscription struct {
	id      string
	subject string
	hub     *Hub
}

// ID returns the subscription's unique identity.
func (s *Subscription) ID() string {
	return s.id
}

// Subject returns the subject pattern this subscription is for.
func (s *Subscription) Subject() string {
	return s.subject
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.hub != nil {
		s.hub.remove(s)
	}
}

// Hub routes events to subscribers. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]*entry
	closed bool
}

type entry struct {
	sub     *Subscription
	handler Handler
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*entry)}
}

// Subscribe registers a handler for a subject pattern. Patterns support "*"
// for one token and ">" for the remaining tokens, as in the NATS subject
// grammar.
func (h *Hub) Subscribe(subject string, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("events: nil handler")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	sub := &Subscription{id: ulid.Make().String(), subject: subject, hub: h}
	h.subs[subject] = append(h.subs[subject], &entry{sub: sub, handler: handler})
	return sub, nil
}

// Publish delivers an event to every matching subscription, synchronously,
// in subscription order per pattern.
func (h *Hub) Publish(subject string, payload any) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	var handlers []Handler
	for pattern, entries := range h.subs {
		if !matchSubject(pattern, subject) {
			continue
		}
		for _, e := range entries {
			handlers = append(handlers, e.handler)
		}
	}
	h.mu.RUnlock()

	ev := Event{Subject: subject, Payload: payload}
	for _, fn := range handlers {
		fn(ev)
	}
	return nil
}

// Close releases every subscription. Further Publish and Subscribe calls
// return ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[string][]*entry)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.subs[sub.subject]
	for i, e := range entries {
		if e.sub == sub {
			h.subs[sub.subject] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// matchSubject matches a subject against a pattern with "*" (one token) and
// ">" (one or more trailing tokens) wildcards.
func matchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	subjectParts := strings.Split(subject, ".")

	pi, si := 0, 0
	for pi < len(patternParts) && si < len(subjectParts) {
		switch patternParts[pi] {
		case "*":
			pi++
			si++
		case ">":
			return true
		default:
			if patternParts[pi] != subjectParts[si] {
				return false
			}
			pi++
			si++
		}
	}

	return pi == len(patternParts) && si == len(subjectParts)
}
