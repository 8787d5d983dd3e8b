// Package protocol defines the wire events exchanged with the room server.
//
// Every frame is a JSON envelope carrying a named event and its payload.
// Inbound frames decode into a tagged union so handlers can switch on the
// concrete event type instead of inspecting raw maps.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a wire event by its name.
type EventType string

const (
	EventJoinRoom      EventType = "join_room"
	EventJoinAck       EventType = "join_ack"
	EventUserJoined    EventType = "user_joined"
	EventUsernameError EventType = "username_error"
	EventMessage       EventType = "message"
	EventImage         EventType = "image"
	EventUserStatus    EventType = "user_status"
)

// String returns the wire name of the event.
func (et EventType) String() string {
	return string(et)
}

// Presence status values carried by join_ack and user_status.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope is the outer frame: an event name plus its raw payload.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoom requests entry into the room selected by the security code.
type JoinRoom struct {
	Username     string `json:"username"`
	SecurityCode string `json:"security_code"`
}

// JoinAck confirms the sender's own join and carries its presence status.
type JoinAck struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

// UserJoined announces that another user entered the room. It carries no
// presence payload in this protocol version.
type UserJoined struct {
	Username string `json:"username"`
}

// UsernameError reports an identity rejection. Block distinguishes fatal
// rejections from informational ones.
type UsernameError struct {
	Message string `json:"message"`
	Block   bool   `json:"block"`
}

// ChatMessage is a plain text message. Timestamp is the sender's wall clock
// in RFC 3339 and is display metadata only, never an ordering key.
type ChatMessage struct {
	Username     string `json:"username"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	SecurityCode string `json:"security_code,omitempty"`
}

// ImageMessage carries a complete image as one frame. ImageData is
// base64-encoded on the wire by encoding/json.
type ImageMessage struct {
	Username     string `json:"username"`
	ImageData    []byte `json:"image_data"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	SecurityCode string `json:"security_code,omitempty"`
}

// UserStatus reports a user's online/offline presence.
type UserStatus struct {
	Username     string `json:"username"`
	Status       string `json:"status"`
	SecurityCode string `json:"security_code,omitempty"`
}

// Unknown preserves an event this client does not recognize. Receiving one
// is not an error; the stream must keep flowing.
type Unknown struct {
	Event EventType
	Data  json.RawMessage
}

// Inbound is the tagged union of events the server may deliver.
type Inbound interface {
	inbound()
}

func (*JoinAck) inbound()       {}
func (*UserJoined) inbound()    {}
func (*UsernameError) inbound() {}
func (*ChatMessage) inbound()   {}
func (*ImageMessage) inbound()  {}
func (*UserStatus) inbound()    {}
func (*Unknown) inbound()       {}

// Encode wraps a payload in an envelope and marshals it to a wire frame.
func Encode(event EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", event, err)
	}
	return frame, nil
}

// Decode parses a wire frame into its typed inbound event. Unrecognized
// event names decode to *Unknown rather than failing, so a newer server
// cannot stall an older client.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	var event Inbound
	switch env.Event {
	case EventJoinAck:
		event = &JoinAck{}
	case EventUserJoined:
		event = &UserJoined{}
	case EventUsernameError:
		event = &UsernameError{}
	case EventMessage:
		event = &ChatMessage{}
	case EventImage:
		event = &ImageMessage{}
	case EventUserStatus:
		event = &UserStatus{}
	default:
		return &Unknown{Event: env.Event, Data: env.Data}, nil
	}

	if err := json.Unmarshal(env.Data, event); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", env.Event, err)
	}
	return event, nil
}
