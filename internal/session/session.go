// Package session implements the real-time room session engine: the room
// join handshake, the presence heartbeat, the ordered message stream, the
// image pipeline and the ephemeral notification state. All of it reacts to
// events processed one at a time on a single loop, so no observer ever sees
// a partially updated session.
package session

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoom/chat-client/internal/identity"
	"github.com/saferoom/chat-client/internal/transport"
	"github.com/saferoom/chat-client/pkg/protocol"
)

const (
	disconnectedText = "Disconnected from server. Please try again later."
	connectErrorText = "Connection error. Please check your network."
	oversizeText     = "Image is too large. Maximum size allowed is 10 MB."
	unreadableText   = "Could not read image file."
	failedText       = "Could not reconnect to the server. Please rejoin the room."
)

// Options configures an Engine. Zero durations and sizes fall back to the
// room server's contract.
type Options struct {
	Identity identity.Identity
	Store    identity.Store
	Conn     *transport.Conn
	Logger   zerolog.Logger

	ToastTTL          time.Duration
	HeartbeatInterval time.Duration
	MaxImageBytes     int64
}

// Engine is one room session: identity, connection, message log, presence
// and notifications, from Start to Close.
type Engine struct {
	id    identity.Identity
	store identity.Store
	conn  *transport.Conn
	log   zerolog.Logger

	heartbeatInterval time.Duration
	maxImageBytes     int64

	toasts *ToastQueue
	viewer *Viewer

	mu       sync.RWMutex
	messages []Message
	presence PresenceList
	focused  bool

	cmds   chan command
	events chan Event

	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	wg        sync.WaitGroup
}

type command interface {
	sessionCommand()
}

type cmdSendText struct{ body string }
type cmdSetFocus struct{ focused bool }
type cmdImageReady struct{ img ImagePayload }
type cmdToast struct{ text string }

func (cmdSendText) sessionCommand()   {}
func (cmdSetFocus) sessionCommand()   {}
func (cmdImageReady) sessionCommand() {}
func (cmdToast) sessionCommand()      {}

// New creates an Engine around an unstarted transport connection. The
// engine owns the connection from here on.
func New(opts Options) *Engine {
	if opts.ToastTTL == 0 {
		opts.ToastTTL = 2 * time.Second
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.MaxImageBytes == 0 {
		opts.MaxImageBytes = 10 << 20
	}
	if opts.Store == nil {
		opts.Store = identity.NewMemoryStore()
	}

	e := &Engine{
		id:                opts.Identity,
		store:             opts.Store,
		conn:              opts.Conn,
		log:               opts.Logger,
		heartbeatInterval: opts.HeartbeatInterval,
		maxImageBytes:     opts.MaxImageBytes,
		viewer:            NewViewer(),
		focused:           true,
		cmds:              make(chan command, 16),
		events:            make(chan Event, 64),
		done:              make(chan struct{}),
	}
	e.toasts = NewToastQueue(opts.ToastTTL, func(t Toast) {
		e.emit(ToastExpired{ID: t.ID})
	})
	return e
}

// Start begins the session. Without a valid identity no connection is ever
// opened; the presentation layer is asked to return to session start.
func (e *Engine) Start() {
	if !e.id.Valid() {
		e.emit(RedirectToStart{Reason: "missing identity"})
		return
	}
	e.conn.Start()
	e.wg.Add(1)
	go e.run()
}

// Events is the engine's observable output. It is never closed; consumers
// should also select on Done.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Done is closed when the session has been torn down.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Identity returns the session identity.
func (e *Engine) Identity() identity.Identity {
	return e.id
}

// Messages returns a snapshot of the log in arrival order.
func (e *Engine) Messages() []Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Presence returns a snapshot of the presence list.
func (e *Engine) Presence() []PresenceEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.presence.Entries()
}

// Toasts returns the currently visible toasts.
func (e *Engine) Toasts() []Toast {
	return e.toasts.Active()
}

// Viewer returns the modal image viewer.
func (e *Engine) Viewer() *Viewer {
	return e.viewer
}

// OpenImage opens the modal viewer on an image message.
func (e *Engine) OpenImage(msg Message) (*ViewHandle, error) {
	if msg.Kind != KindImage || msg.Image == nil {
		return nil, fmt.Errorf("message from %s is not an image", msg.Sender)
	}
	return e.viewer.Open(*msg.Image), nil
}

// SendText transmits a text message. The call is fire-and-forget: the
// caller may clear its input immediately, and a send lost to a disconnect
// is not retried. Blank input is dropped.
func (e *Engine) SendText(body string) {
	e.command(cmdSendText{body: body})
}

// SendImage validates and transmits the file at path as a single image
// event. The size ceiling is enforced before any bytes are read or sent;
// the read itself happens off the event loop and the payload is handed back
// to it for transmission.
func (e *Engine) SendImage(path string) {
	// The Add must be ordered before Close's Wait: both take closeMu, and
	// Close closes done under it, so a send that wins the lock is tracked
	// and one that loses sees the session torn down.
	e.closeMu.Lock()
	select {
	case <-e.done:
		e.closeMu.Unlock()
		return
	default:
	}
	e.wg.Add(1)
	e.closeMu.Unlock()

	go func() {
		defer e.wg.Done()

		info, err := os.Stat(path)
		if err != nil {
			e.log.Warn().Err(err).Str("path", path).Msg("image stat failed")
			e.command(cmdToast{text: unreadableText})
			return
		}
		if info.Size() > e.maxImageBytes {
			e.command(cmdToast{text: oversizeText})
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			e.log.Warn().Err(err).Str("path", path).Msg("image read failed")
			e.command(cmdToast{text: unreadableText})
			return
		}

		e.command(cmdImageReady{img: ImagePayload{
			Bytes:    data,
			Filename: filepath.Base(path),
			MimeType: mimeTypeOf(path),
		}})
	}()
}

// SetFocused reports window focus. Focus changes are forwarded to the room
// as presence, and the heartbeat keeps re-reporting online while focused.
func (e *Engine) SetFocused(focused bool) {
	e.command(cmdSetFocus{focused: focused})
}

// Close tears the session down: it stops the loop, cancels the heartbeat,
// closes the connection, drops pending toasts and clears the stored
// identity. It runs at most once and may be called from any goroutine.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.closeMu.Lock()
		close(e.done)
		e.closeMu.Unlock()
		if e.conn != nil {
			e.conn.Close()
		}
		e.toasts.Stop()
		e.viewer.Close()
		e.store.Clear()
		e.wg.Wait()
	})
}

func (e *Engine) command(c command) {
	select {
	case e.cmds <- c:
	case <-e.done:
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// run is the session event loop. Everything that mutates session state goes
// through here, one event at a time.
func (e *Engine) run() {
	defer e.wg.Done()

	heartbeat := time.NewTicker(e.heartbeatInterval)
	defer heartbeat.Stop()

	transitions := e.conn.Transitions()
	frames := e.conn.Frames()

	for {
		select {
		case <-e.done:
			return
		case tr, ok := <-transitions:
			if !ok {
				transitions = nil
				continue
			}
			e.handleTransition(tr)
		case frame, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			if stop := e.handleFrame(frame); stop {
				return
			}
		case c := <-e.cmds:
			e.handleCommand(c)
		case <-heartbeat.C:
			e.mu.RLock()
			focused := e.focused
			e.mu.RUnlock()
			if focused {
				e.sendStatus(StatusOnline)
			}
		}
	}
}

func (e *Engine) handleTransition(tr transport.Transition) {
	e.emit(ConnectionStateChanged{State: tr.State})

	switch tr.State {
	case transport.StateConnected:
		e.joinRoom()
	case transport.StateDisconnected:
		e.showToast(disconnectedText)
	case transport.StateReconnecting:
		if tr.Err != nil {
			e.showToast(connectErrorText)
		}
	case transport.StateFailed:
		e.emit(Notice{Text: failedText})
	}
}

// handleFrame processes one inbound event. It reports whether the session
// must stop (blocking identity rejection).
func (e *Engine) handleFrame(frame []byte) bool {
	in, err := protocol.Decode(frame)
	if err != nil {
		e.log.Warn().Err(err).Msg("dropping undecodable frame")
		return false
	}

	switch ev := in.(type) {
	case *protocol.JoinAck:
		e.upsertPresence(ev.Username, Status(ev.Status))
		e.showToast(fmt.Sprintf("%s joined the room", ev.Username))

	case *protocol.UserJoined:
		// No presence payload on this path; the toast is all there is.
		e.showToast(fmt.Sprintf("%s joined the room", ev.Username))

	case *protocol.UsernameError:
		if !ev.Block {
			e.log.Warn().Str("reason", ev.Message).Msg("identity rejected, continuing")
			return false
		}
		e.emit(Notice{Text: ev.Message})
		e.store.Clear()
		e.emit(RedirectToStart{Reason: ev.Message})
		go e.Close()
		return true

	case *protocol.ChatMessage:
		e.appendMessage(Message{
			Sender:    ev.Username,
			Kind:      KindText,
			Body:      ev.Message,
			Timestamp: parseTimestamp(ev.Timestamp),
		})

	case *protocol.ImageMessage:
		e.appendMessage(Message{
			Sender: ev.Username,
			Kind:   KindImage,
			Image: &ImagePayload{
				Bytes:    ev.ImageData,
				Filename: ev.Filename,
				MimeType: ev.MimeType,
			},
		})

	case *protocol.UserStatus:
		e.upsertPresence(ev.Username, Status(ev.Status))
		e.showToast(fmt.Sprintf("%s is %s", ev.Username, ev.Status))
		e.emit(ScrollToLatest{})

	case *protocol.Unknown:
		e.log.Debug().Stringer("event", ev.Event).Msg("ignoring unknown event")
	}
	return false
}

func (e *Engine) handleCommand(c command) {
	switch cmd := c.(type) {
	case cmdSendText:
		body := strings.TrimSpace(cmd.body)
		if body == "" {
			return
		}
		e.send(protocol.EventMessage, protocol.ChatMessage{
			Username:     e.id.Username,
			Message:      body,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			SecurityCode: e.id.RoomCode,
		})

	case cmdImageReady:
		e.send(protocol.EventImage, protocol.ImageMessage{
			Username:     e.id.Username,
			ImageData:    cmd.img.Bytes,
			Filename:     cmd.img.Filename,
			MimeType:     cmd.img.MimeType,
			SecurityCode: e.id.RoomCode,
		})

	case cmdSetFocus:
		e.mu.Lock()
		e.focused = cmd.focused
		e.mu.Unlock()
		if cmd.focused {
			e.sendStatus(StatusOnline)
		} else {
			e.sendStatus(StatusOffline)
		}

	case cmdToast:
		e.showToast(cmd.text)
	}
}

func (e *Engine) joinRoom() {
	e.send(protocol.EventJoinRoom, protocol.JoinRoom{
		Username:     e.id.Username,
		SecurityCode: e.id.RoomCode,
	})
}

func (e *Engine) sendStatus(status Status) {
	e.send(protocol.EventUserStatus, protocol.UserStatus{
		Username:     e.id.Username,
		Status:       string(status),
		SecurityCode: e.id.RoomCode,
	})
}

// send encodes and transmits one event, fire-and-forget. Transmission
// failures are logged, never retried.
func (e *Engine) send(event protocol.EventType, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		e.log.Error().Err(err).Stringer("event", event).Msg("failed to encode event")
		return
	}
	if err := e.conn.Send(frame); err != nil {
		e.log.Warn().Err(err).Stringer("event", event).Msg("event not sent")
	}
}

func (e *Engine) appendMessage(msg Message) {
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()

	e.emit(MessageAppended{Message: msg})
	e.emit(ScrollToLatest{})
}

func (e *Engine) upsertPresence(username string, status Status) {
	e.mu.Lock()
	e.presence.Upsert(PresenceEntry{
		Username:   username,
		Status:     status,
		LastUpdate: time.Now(),
	})
	entries := e.presence.Entries()
	e.mu.Unlock()

	e.emit(PresenceChanged{Entries: entries})
}

func (e *Engine) showToast(text string) {
	toast := e.toasts.Add(text)
	e.emit(ToastShown{Toast: toast})
}

func mimeTypeOf(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
