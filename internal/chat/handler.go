package chat

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
	"helpdesk/internal/user"
)

// TicketGuard answers whether a user is a party to a ticket's
// conversation. Satisfied by ticket.Repository.
type TicketGuard interface {
	Participant(ctx context.Context, ticketID, userID uuid.UUID) (bool, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The SPA is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub      *Hub
	messages MessageRepository
	tickets  TicketGuard
}

func NewHandler(hub *Hub, messages MessageRepository, tickets TicketGuard) *Handler {
	return &Handler{hub: hub, messages: messages, tickets: tickets}
}

// ServeWS upgrades the connection and hands it to the hub. Room
// membership is established by the join frame, not the URL.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: upgrade failed: %v", err)
		return
	}

	c := &client{
		hub:   h.hub,
		conn:  conn,
		send:  make(chan []byte, 64),
		guard: h.tickets,
	}
	go c.writePump()
	go c.readPump()
}

// History returns the full message history for a ticket, ascending by
// sequence. Restricted to the ticket's participants and staff.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(mux.Vars(r)["ticketId"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	caller, _ := auth.IdentityFrom(r.Context())
	if caller.Role != user.RoleAdmin {
		ok, err := h.tickets.Participant(r.Context(), ticketID, caller.UserID)
		if err != nil {
			log.Printf("chat: participant check failed: %v", err)
			infrastructure.WriteError(w, http.StatusInternalServerError, "failed to load chat history")
			return
		}
		if !ok {
			infrastructure.WriteError(w, http.StatusForbidden, "not a participant of this ticket")
			return
		}
	}

	messages, err := h.messages.History(r.Context(), ticketID)
	if err != nil {
		log.Printf("chat: failed to load history: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	infrastructure.WriteData(w, http.StatusOK, messages)
}

func SetupRoutes(r *mux.Router, h *Handler, mw *auth.Middleware) {
	r.HandleFunc("/ws", h.ServeWS)
	r.HandleFunc("/api/chat/{ticketId}", mw.Require(h.History)).Methods("GET")
}
