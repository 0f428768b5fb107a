package chat

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"helpdesk/internal/user"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// How long a connection may sit idle before its join frame arrives.
	joinWait = 10 * time.Second
)

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	guard TicketGuard

	roomID string
	sender Sender
}

// readPump drives one connection. The first frame must be a join; until
// it arrives the client belongs to no room and receives nothing.
func (c *client) readPump() {
	joined := false
	defer func() {
		if joined {
			c.hub.unregister <- c
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(joinWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("chat: read error: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("chat: invalid frame: %v", err)
			continue
		}

		switch env.Type {
		case TypeJoin:
			if joined {
				continue
			}
			if !c.handleJoin(env.Payload) {
				return
			}
			joined = true
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
			c.hub.register <- c

		case TypeChat:
			if !joined {
				continue
			}
			c.handleChat(env.Payload)

		default:
			// Forward compatibility: ignore frames we do not understand.
		}
	}
}

func (c *client) handleJoin(payload json.RawMessage) bool {
	var join JoinPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		log.Printf("chat: invalid join payload: %v", err)
		return false
	}

	userID, err := uuid.Parse(join.UserID)
	if err != nil {
		log.Printf("chat: join rejected: bad user id")
		return false
	}
	ticketID, err := uuid.Parse(join.RoomID)
	if err != nil {
		log.Printf("chat: join rejected: bad room id")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u, err := c.hub.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("chat: join rejected: unknown user %s", join.UserID)
		return false
	}

	// Same rule as the history endpoint: the room is open to the
	// ticket's parties and to admins.
	if u.Role != user.RoleAdmin {
		ok, err := c.guard.Participant(ctx, ticketID, userID)
		if err != nil || !ok {
			log.Printf("chat: join rejected: %s is not a participant of %s", join.UserID, join.RoomID)
			return false
		}
	}

	c.roomID = join.RoomID
	c.sender = Sender{ID: u.ID.String(), Name: u.Name, Role: u.Role}
	return true
}

func (c *client) handleChat(payload json.RawMessage) {
	var chat ChatPayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		log.Printf("chat: invalid chat payload: %v", err)
		return
	}
	text := strings.TrimSpace(chat.Message)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.hub.publish(ctx, &Message{
		TicketID: c.roomID,
		Message:  text,
		Sender:   c.sender,
	})
}

// writePump flushes the send channel to the socket and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
