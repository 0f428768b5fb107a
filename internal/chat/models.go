package chat

import (
	"encoding/json"
	"time"
)

// Frame types on the ticket chat socket. Unknown types are ignored so
// the protocol can grow without breaking older clients.
const (
	TypeJoin = "join"
	TypeChat = "chat"
)

// Sender is the attributed author of a message. It is always filled
// server-side from the joined identity, never trusted from the client.
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Seq       int64     `json:"seq"`
	Message   string    `json:"message"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// Envelope is the wire frame. Client-to-server frames carry a payload;
// server-to-client chat frames carry the stored message in data.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Data    *Message        `json:"data,omitempty"`
}

type JoinPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type ChatPayload struct {
	Message string `json:"message"`
}
