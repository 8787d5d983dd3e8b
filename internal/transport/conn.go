// Package transport owns the websocket connection to the room server: the
// dial/read lifecycle, the reconnection policy and the state machine the
// session engine observes. No other package opens or closes the connection.
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by Send while no connection is established.
var ErrNotConnected = errors.New("not connected to server")

// State is the connection lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateReconnecting
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is one observed state change. Err carries the transport fault
// that caused it, if any.
type Transition struct {
	State State
	Err   error
}

// Config controls dialing and the reconnection policy.
type Config struct {
	// URL is the websocket endpoint.
	URL string
	// MaxAttempts bounds consecutive failed dials before the connection is
	// declared failed for good.
	MaxAttempts int
	// BaseDelay is the first retry delay; it doubles per attempt up to
	// MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// HandshakeTimeout bounds a single dial.
	HandshakeTimeout time.Duration
	// ReadLimit bounds inbound frame size. It must be at least as large as
	// the biggest image the room server relays.
	ReadLimit int64

	Logger zerolog.Logger
}

// Conn is the singleton connection of one session. Start launches the
// lifecycle; Close tears it down on every exit path.
type Conn struct {
	cfg Config
	log zerolog.Logger

	mu    sync.RWMutex
	ws    *websocket.Conn
	state State

	frames      chan []byte
	transitions chan Transition

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Conn. Zero config fields fall back to the server's
// connection contract (10 attempts, 1s base delay, 5s cap, 30s handshake
// timeout, 10 MiB frames).
func New(cfg Config) *Conn {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = 10 << 20
	}
	return &Conn{
		cfg:         cfg,
		log:         cfg.Logger,
		state:       StateIdle,
		frames:      make(chan []byte, 10),
		transitions: make(chan Transition, 32),
		done:        make(chan struct{}),
	}
}

// Start launches the connection lifecycle in the background.
func (c *Conn) Start() {
	c.wg.Add(1)
	go c.run()
}

// Frames delivers inbound frames in delivery order. The channel is closed
// when the lifecycle ends.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// Transitions delivers state changes in order. The channel is closed when
// the lifecycle ends.
func (c *Conn) Transitions() <-chan Transition {
	return c.transitions
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Send transmits one frame. It is fire-and-forget: a frame lost to a
// concurrent disconnect is not retried.
func (c *Conn) Send(data []byte) error {
	c.mu.RLock()
	ws := c.ws
	c.mu.RUnlock()

	if ws == nil {
		return ErrNotConnected
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// Close shuts the lifecycle down unconditionally and waits for it to stop.
// It is safe to call more than once and from any goroutine except the
// lifecycle's own.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.ws != nil {
			c.ws.Close()
		}
		c.mu.Unlock()
		c.wg.Wait()
	})
}

func (c *Conn) run() {
	defer c.wg.Done()
	defer close(c.frames)
	defer close(c.transitions)

	var lastErr error
	attempts := 0
	delay := c.cfg.BaseDelay
	first := true

	for {
		select {
		case <-c.done:
			return
		default:
		}

		// Only reconnection dials count against MaxAttempts; the initial
		// Connecting dial is not a reconnection attempt.
		if first {
			c.transition(StateConnecting, nil)
			first = false
		} else {
			attempts++
			c.transition(StateReconnecting, lastErr)
		}

		ws, err := c.dial()
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempts).Msg("dial failed")
			if attempts >= c.cfg.MaxAttempts {
				c.transition(StateFailed, err)
				return
			}
			if !c.wait(delay) {
				return
			}
			delay = min(delay*2, c.cfg.MaxDelay)
			continue
		}

		attempts = 0
		delay = c.cfg.BaseDelay
		lastErr = nil

		c.setWS(ws)
		c.transition(StateConnected, nil)

		readErr := c.readLoop(ws)
		c.setWS(nil)
		ws.Close()

		select {
		case <-c.done:
			return
		default:
		}
		c.transition(StateDisconnected, readErr)
		// The read error belongs to the Disconnected transition; Reconnecting
		// transitions carry dial errors only.
		lastErr = nil
	}
}

func (c *Conn) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	ws, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}
	ws.SetReadLimit(c.cfg.ReadLimit)
	return ws, nil
}

// readLoop forwards inbound frames until the connection drops or the
// lifecycle is closed.
func (c *Conn) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		select {
		case c.frames <- data:
		case <-c.done:
			return nil
		}
	}
}

func (c *Conn) setWS(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
}

func (c *Conn) transition(state State, err error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.log.Debug().Stringer("state", state).Err(err).Msg("connection state")
	select {
	case c.transitions <- Transition{State: state, Err: err}:
	case <-c.done:
	}
}

// wait sleeps for d, returning false if the lifecycle was closed meanwhile.
func (c *Conn) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	}
}
