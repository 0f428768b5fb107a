package chat

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"helpdesk/internal/user"
)

// UserDirectory resolves the identity a client declares in its join
// frame. Satisfied by user.Repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type broadcast struct {
	roomID  string
	payload []byte
}

// Hub owns the room membership maps. rooms is touched only from Run's
// goroutine; everything else reaches it through the channels.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan broadcast

	rooms map[string]map[*client]bool

	messages MessageRepository
	users    UserDirectory
}

func NewHub(messages MessageRepository, users UserDirectory) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan broadcast, 256),
		rooms:      make(map[string]map[*client]bool),
		messages:   messages,
		users:      users,
	}
}

// Run processes membership changes and fan-out until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			if h.rooms[c.roomID] == nil {
				h.rooms[c.roomID] = make(map[*client]bool)
			}
			h.rooms[c.roomID][c] = true

		case c := <-h.unregister:
			if clients, ok := h.rooms[c.roomID]; ok {
				if clients[c] {
					delete(clients, c)
					close(c.send)
					if len(clients) == 0 {
						delete(h.rooms, c.roomID)
					}
				}
			}

		case b := <-h.broadcast:
			for c := range h.rooms[b.roomID] {
				select {
				case c.send <- b.payload:
				default:
					// Slow consumer; drop it rather than block the room.
					delete(h.rooms[b.roomID], c)
					close(c.send)
				}
			}
		}
	}
}

// publish stores the message and fans it out to everyone in the room,
// including the sender. Senders see their own message only via this
// echo, which keeps a single ordering authority.
func (h *Hub) publish(ctx context.Context, m *Message) {
	if err := h.messages.Save(ctx, m); err != nil {
		log.Printf("chat: failed to persist message: %v", err)
		return
	}

	payload, err := json.Marshal(Envelope{Type: TypeChat, Data: m})
	if err != nil {
		log.Printf("chat: failed to marshal message: %v", err)
		return
	}
	h.broadcast <- broadcast{roomID: m.TicketID, payload: payload}
}
