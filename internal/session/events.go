package session

import "github.com/saferoom/chat-client/internal/transport"

// Event is the tagged union of everything the presentation layer can
// observe from the engine. Consumers switch on the concrete type.
type Event interface {
	sessionEvent()
}

// MessageAppended reports a new entry on the message log.
type MessageAppended struct {
	Message Message
}

// PresenceChanged carries the full presence list after an upsert.
type PresenceChanged struct {
	Entries []PresenceEntry
}

// ToastShown reports a newly enqueued toast.
type ToastShown struct {
	Toast Toast
}

// ToastExpired reports that a toast's display duration elapsed.
type ToastExpired struct {
	ID string
}

// Notice is an interrupting message requiring acknowledgment before the
// session can proceed (used for blocking identity rejections and terminal
// connection failure).
type Notice struct {
	Text string
}

// RedirectToStart asks the presentation layer to navigate back to session
// start. The stored identity has already been cleared when this is emitted.
type RedirectToStart struct {
	Reason string
}

// ScrollToLatest hints that the message view should scroll to its newest
// entry. Purely presentational.
type ScrollToLatest struct{}

// ConnectionStateChanged mirrors the transport lifecycle for display.
type ConnectionStateChanged struct {
	State transport.State
}

func (MessageAppended) sessionEvent()        {}
func (PresenceChanged) sessionEvent()        {}
func (ToastShown) sessionEvent()             {}
func (ToastExpired) sessionEvent()           {}
func (Notice) sessionEvent()                 {}
func (RedirectToStart) sessionEvent()        {}
func (ScrollToLatest) sessionEvent()         {}
func (ConnectionStateChanged) sessionEvent() {}
