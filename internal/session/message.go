package session

import "time"

// MessageKind distinguishes renderable message bodies.
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
)

// String returns the kind name.
func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "TEXT"
	case KindImage:
		return "IMAGE"
	default:
		return "UNKNOWN"
	}
}

// ImagePayload is an undecoded image attachment. Bytes are kept opaque
// until the user asks to view them.
type ImagePayload struct {
	Bytes    []byte
	Filename string
	MimeType string
}

// Message is one append-only log entry. Timestamp is the sender's clock and
// is display metadata only; the log itself is ordered by arrival.
type Message struct {
	Sender    string
	Kind      MessageKind
	Body      string
	Image     *ImagePayload
	Timestamp time.Time
}

// DisplayTime formats the sender timestamp for display. A malformed or
// absent timestamp degrades to a placeholder instead of failing.
func (m Message) DisplayTime() string {
	if m.Timestamp.IsZero() {
		return "Invalid Time"
	}
	return m.Timestamp.Local().Format("15:04:05")
}

// parseTimestamp reads an RFC 3339 sender timestamp, returning the zero
// time when it cannot be parsed.
func parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
