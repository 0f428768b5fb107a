// Package chatclient implements the client side of the per-ticket chat:
// one WebSocket session per ticket room, a REST history loader, and a
// feed that merges the two into a single time-ordered view.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrTransport marks connection failures. Terminal for a session:
	// recovery is a fresh Dial, optionally via Redialer.
	ErrTransport = errors.New("chat transport failed")

	// ErrHistoryUnavailable marks a failed history fetch. Non-terminal:
	// a live session keeps working without history.
	ErrHistoryUnavailable = errors.New("chat history unavailable")
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Sender identifies a message author.
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Message is one chat message as delivered by the server. Seq is the
// server-assigned per-room sequence number.
type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Seq       int64     `json:"seq"`
	Message   string    `json:"message"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Data    *Message        `json:"data,omitempty"`
}

type joinPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type chatPayload struct {
	Message string `json:"message"`
}

// Config describes one session. OnMessage is invoked once per inbound
// chat frame, in arrival order, from a single goroutine.
type Config struct {
	URL      string
	RoomID   string
	ViewerID string

	OnMessage func(Message)

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Session is a single connection to one ticket room. It is owned by the
// view that opened it and is not shared.
type Session struct {
	conn      *websocket.Conn
	onMessage func(Message)

	state     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	errMu sync.Mutex
	err   error
}

// Dial connects, sends the join frame for the room exactly once, and
// starts delivering inbound messages. The session is open when Dial
// returns without error.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.URL == "" || cfg.RoomID == "" || cfg.ViewerID == "" {
		return nil, fmt.Errorf("%w: url, room and viewer are required", ErrTransport)
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	s := &Session{
		onMessage: cfg.OnMessage,
		done:      make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.state.Store(int32(StateClosed))
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	s.conn = conn

	join := envelope{Type: "join"}
	join.Payload, _ = json.Marshal(joinPayload{RoomID: cfg.RoomID, UserID: cfg.ViewerID})
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		s.state.Store(int32(StateClosed))
		return nil, fmt.Errorf("%w: join failed: %v", ErrTransport, err)
	}

	// No join acknowledgement in the protocol: transport-open is open.
	s.state.Store(int32(StateOpen))
	go s.readLoop()
	return s, nil
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed when the session reaches its terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports why the session ended. Nil after a clean Close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Send transmits a chat frame with the trimmed text. Empty text, or a
// session that is not open, makes Send a silent no-op: the send control
// in the UI is disabled in exactly those states, so an error would only
// surface races between rapid clicks and a dropping connection.
//
// The sent message is not echoed locally; it joins the feed when the
// server delivers it back, which keeps one ordering authority.
func (s *Session) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" || s.State() != StateOpen {
		return
	}

	env := envelope{Type: "chat"}
	env.Payload, _ = json.Marshal(chatPayload{Message: text})

	s.writeMu.Lock()
	err := s.conn.WriteJSON(env)
	s.writeMu.Unlock()
	if err != nil {
		s.terminate(fmt.Errorf("%w: %v", ErrTransport, err))
	}
}

// Close releases the transport. Safe to call multiple times and after a
// transport failure; later calls are no-ops.
func (s *Session) Close() {
	s.terminate(nil)
}

func (s *Session) terminate(err error) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()

		if s.conn != nil {
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			s.conn.Close()
		}
		close(s.done)
	})
}

// readLoop delivers inbound chat frames to the handler in arrival
// order. Any read error is terminal.
func (s *Session) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				s.State() == StateClosed {
				s.terminate(nil)
			} else {
				s.terminate(fmt.Errorf("%w: %v", ErrTransport, err))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		// Only chat frames are interpreted; everything else is ignored
		// for forward compatibility.
		if env.Type != "chat" || env.Data == nil {
			continue
		}

		// A message read concurrently with Close must not reach the
		// handler after the caller released the session.
		if s.State() != StateOpen {
			return
		}
		if s.onMessage != nil {
			s.onMessage(*env.Data)
		}
	}
}
