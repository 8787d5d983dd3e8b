package session

import "time"

// Status is a user's reported presence.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// PresenceEntry is the last observed status of one user.
type PresenceEntry struct {
	Username   string
	Status     Status
	LastUpdate time.Time
}

// PresenceList keeps at most one entry per username, ordered by most recent
// update: an upsert removes the prior entry for that user and appends the
// new one at the end. It is not safe for concurrent use; the engine loop
// owns it and hands out copies.
type PresenceList struct {
	entries []PresenceEntry
}

// Upsert records a new status for a user per the ordering rule above.
func (l *PresenceList) Upsert(entry PresenceEntry) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.Username != entry.Username {
			kept = append(kept, e)
		}
	}
	l.entries = append(kept, entry)
}

// Entries returns a copy of the list in display order.
func (l *PresenceList) Entries() []PresenceEntry {
	out := make([]PresenceEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of visible entries.
func (l *PresenceList) Len() int {
	return len(l.entries)
}
