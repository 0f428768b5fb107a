package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"helpdesk/internal/user"
)

type memMessageRepository struct {
	mu   sync.Mutex
	seq  map[string]int64
	msgs []Message
}

func newMemMessageRepository() *memMessageRepository {
	return &memMessageRepository{seq: make(map[string]int64)}
}

func (r *memMessageRepository) Save(ctx context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.seq[m.TicketID]++
	m.Seq = r.seq[m.TicketID]
	m.CreatedAt = time.Now().UTC()
	r.msgs = append(r.msgs, *m)
	return nil
}

func (r *memMessageRepository) History(ctx context.Context, ticketID uuid.UUID) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.msgs {
		if m.TicketID == ticketID.String() {
			out = append(out, m)
		}
	}
	return out, nil
}

type memDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func (d *memDirectory) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

// guardFunc adapts a predicate to the TicketGuard interface.
type guardFunc func(ticketID, userID uuid.UUID) bool

func (f guardFunc) Participant(ctx context.Context, ticketID, userID uuid.UUID) (bool, error) {
	return f(ticketID, userID), nil
}

func allowAll(uuid.UUID, uuid.UUID) bool { return true }

type chatFixture struct {
	repo *memMessageRepository
	srv  *httptest.Server

	alice *user.User
	bob   *user.User
	admin *user.User
}

func newChatFixture(t *testing.T, guard guardFunc) *chatFixture {
	t.Helper()
	f := &chatFixture{
		repo:  newMemMessageRepository(),
		alice: &user.User{ID: uuid.New(), Name: "Alice", Role: user.RoleUser},
		bob:   &user.User{ID: uuid.New(), Name: "Bob", Role: user.RoleTechnician},
		admin: &user.User{ID: uuid.New(), Name: "Root", Role: user.RoleAdmin},
	}
	directory := &memDirectory{users: map[uuid.UUID]*user.User{
		f.alice.ID: f.alice,
		f.bob.ID:   f.bob,
		f.admin.ID: f.admin,
	}}

	hub := NewHub(f.repo, directory)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	handler := NewHandler(hub, f.repo, guard)
	f.srv = httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *chatFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func join(t *testing.T, conn *websocket.Conn, roomID string, userID uuid.UUID) {
	t.Helper()
	payload, _ := json.Marshal(JoinPayload{RoomID: roomID, UserID: userID.String()})
	if err := conn.WriteJSON(Envelope{Type: TypeJoin, Payload: payload}); err != nil {
		t.Fatalf("join: %v", err)
	}
	// Registration races the next broadcast; give the hub a beat.
	time.Sleep(50 * time.Millisecond)
}

func sendChat(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	payload, _ := json.Marshal(ChatPayload{Message: text})
	if err := conn.WriteJSON(Envelope{Type: TypeChat, Payload: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}
}

func readChat(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != TypeChat || env.Data == nil {
		t.Fatalf("frame = %+v, want chat with data", env)
	}
	return *env.Data
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var env Envelope
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("unexpected frame: %+v", env)
	}
}

func TestChatFanOutWithServerAttribution(t *testing.T) {
	f := newChatFixture(t, allowAll)
	room := uuid.NewString()

	aliceConn := f.dial(t)
	bobConn := f.dial(t)
	join(t, aliceConn, room, f.alice.ID)
	join(t, bobConn, room, f.bob.ID)

	sendChat(t, aliceConn, "hello there")

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		m := readChat(t, conn)
		if m.Message != "hello there" {
			t.Fatalf("message = %q, want %q", m.Message, "hello there")
		}
		if m.Sender.ID != f.alice.ID.String() || m.Sender.Name != "Alice" || m.Sender.Role != user.RoleUser {
			t.Fatalf("sender = %+v, want Alice's identity", m.Sender)
		}
		if m.Seq != 1 {
			t.Fatalf("seq = %d, want 1", m.Seq)
		}
		if m.ID == "" || m.CreatedAt.IsZero() {
			t.Fatalf("message missing server-assigned fields: %+v", m)
		}
	}
}

func TestChatSequenceIsMonotonicPerRoom(t *testing.T) {
	f := newChatFixture(t, allowAll)
	room := uuid.NewString()
	otherRoom := uuid.NewString()

	conn := f.dial(t)
	join(t, conn, room, f.alice.ID)
	other := f.dial(t)
	join(t, other, otherRoom, f.bob.ID)

	for i, text := range []string{"one", "two", "three"} {
		sendChat(t, conn, text)
		m := readChat(t, conn)
		if m.Seq != int64(i+1) {
			t.Fatalf("message %q seq = %d, want %d", text, m.Seq, i+1)
		}
	}

	// The other room's counter is independent.
	sendChat(t, other, "separate")
	if m := readChat(t, other); m.Seq != 1 {
		t.Fatalf("other room seq = %d, want 1", m.Seq)
	}
}

func TestChatRoomsAreIsolated(t *testing.T) {
	f := newChatFixture(t, allowAll)

	aliceConn := f.dial(t)
	bobConn := f.dial(t)
	join(t, aliceConn, uuid.NewString(), f.alice.ID)
	join(t, bobConn, uuid.NewString(), f.bob.ID)

	sendChat(t, aliceConn, "private")

	if m := readChat(t, aliceConn); m.Message != "private" {
		t.Fatalf("sender echo = %q", m.Message)
	}
	expectSilence(t, bobConn)
}

func TestChatBeforeJoinIsIgnored(t *testing.T) {
	f := newChatFixture(t, allowAll)
	room := uuid.NewString()

	listener := f.dial(t)
	join(t, listener, room, f.bob.ID)

	// A connection that never joined cannot publish.
	stranger := f.dial(t)
	sendChat(t, stranger, "no room yet")

	expectSilence(t, listener)
	if history, _ := f.repo.History(context.Background(), uuid.MustParse(room)); len(history) != 0 {
		t.Fatalf("unjoined message was persisted: %+v", history)
	}
}

func TestJoinRequiresTicketParticipation(t *testing.T) {
	room := uuid.New()
	var f *chatFixture
	// Only Alice is a party to the ticket; the declared identity cannot
	// buy its way into someone else's room.
	f = newChatFixture(t, func(ticketID, userID uuid.UUID) bool {
		return ticketID == room && userID == f.alice.ID
	})

	aliceConn := f.dial(t)
	join(t, aliceConn, room.String(), f.alice.ID)

	bobConn := f.dial(t)
	join(t, bobConn, room.String(), f.bob.ID)
	bobConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := bobConn.ReadMessage(); err == nil {
		t.Fatal("non-participant join survived")
	}

	sendChat(t, aliceConn, "still here")
	if m := readChat(t, aliceConn); m.Message != "still here" {
		t.Fatalf("participant message = %q", m.Message)
	}
}

func TestAdminJoinsAnyRoom(t *testing.T) {
	f := newChatFixture(t, func(uuid.UUID, uuid.UUID) bool { return false })
	room := uuid.NewString()

	conn := f.dial(t)
	join(t, conn, room, f.admin.ID)

	sendChat(t, conn, "oversight")
	if m := readChat(t, conn); m.Sender.Role != user.RoleAdmin {
		t.Fatalf("sender role = %q, want admin", m.Sender.Role)
	}
}

func TestJoinWithUnknownUserDropsConnection(t *testing.T) {
	f := newChatFixture(t, allowAll)

	conn := f.dial(t)
	join(t, conn, uuid.NewString(), uuid.New())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("connection survived a join with an unknown user")
	}
}

func TestBlankChatMessagesAreDropped(t *testing.T) {
	f := newChatFixture(t, allowAll)
	room := uuid.NewString()

	conn := f.dial(t)
	join(t, conn, room, f.alice.ID)

	sendChat(t, conn, "   ")
	sendChat(t, conn, "")
	sendChat(t, conn, "kept")

	if m := readChat(t, conn); m.Message != "kept" {
		t.Fatalf("first delivered message = %q, blanks were not dropped", m.Message)
	}
	expectSilence(t, conn)
}
