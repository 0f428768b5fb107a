package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
	"helpdesk/internal/user"
)

// Notifier is told about ticket events so the notification and email
// side effects stay out of the request path's core logic.
type Notifier interface {
	TicketCreated(ctx context.Context, t *Ticket)
	TicketAssigned(ctx context.Context, t *Ticket)
	TicketStatusChanged(ctx context.Context, t *Ticket, previous string)
}

// NopNotifier is used in tests and when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) TicketCreated(context.Context, *Ticket)              {}
func (NopNotifier) TicketAssigned(context.Context, *Ticket)             {}
func (NopNotifier) TicketStatusChanged(context.Context, *Ticket, string) {}

type Handler struct {
	tickets  Repository
	notifier Notifier
}

func NewHandler(tickets Repository, notifier Notifier) *Handler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Handler{tickets: tickets, notifier: notifier}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		ImageURLs   []string `json:"imageUrls"`
		Notify      bool     `json:"notify"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		infrastructure.WriteError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	urls := make([]string, 0, len(req.ImageURLs))
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	t := &Ticket{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		ImageURLs:   urls,
		Status:      StatusOpen,
		CreatedByID: id.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.tickets.Create(r.Context(), t); err != nil {
		log.Printf("ticket: failed to create: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to create ticket")
		return
	}

	if req.Notify {
		h.notifier.TicketCreated(r.Context(), t)
	}
	infrastructure.WriteData(w, http.StatusCreated, t)
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	h.list(w, func(ctx context.Context) ([]*Ticket, error) {
		return h.tickets.ListByCreator(ctx, id.UserID)
	}, r)
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	h.list(w, h.tickets.ListOpen, r)
}

func (h *Handler) Assigned(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	h.list(w, func(ctx context.Context) ([]*Ticket, error) {
		return h.tickets.ListByAssignee(ctx, id.UserID)
	}, r)
}

func (h *Handler) list(w http.ResponseWriter, fetch func(context.Context) ([]*Ticket, error), r *http.Request) {
	tickets, err := fetch(r.Context())
	if err != nil {
		log.Printf("ticket: failed to list: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	if tickets == nil {
		tickets = []*Ticket{}
	}
	infrastructure.WriteData(w, http.StatusOK, tickets)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetchVisible(w, r)
	if !ok {
		return
	}
	infrastructure.WriteData(w, http.StatusOK, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetchVisible(w, r)
	if !ok {
		return
	}
	caller, _ := auth.IdentityFrom(r.Context())
	if caller.Role != user.RoleAdmin && caller.UserID != t.CreatedByID {
		infrastructure.WriteError(w, http.StatusForbidden, "only the creator can edit a ticket")
		return
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		ImageURLs   []string `json:"imageUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		infrastructure.WriteError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	if err := h.tickets.Update(r.Context(), t.ID, req.Title, req.Description, req.ImageURLs); err != nil {
		log.Printf("ticket: failed to update: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to update ticket")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": t.ID.String()})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetchVisible(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !ValidStatus(req.Status) {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.tickets.UpdateStatus(r.Context(), t.ID, req.Status); err != nil {
		log.Printf("ticket: failed to update status: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to update ticket status")
		return
	}

	previous := t.Status
	t.Status = req.Status
	h.notifier.TicketStatusChanged(r.Context(), t, previous)
	infrastructure.WriteData(w, http.StatusOK, t)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}
	caller, _ := auth.IdentityFrom(r.Context())

	if err := h.tickets.Assign(r.Context(), id, caller.UserID); err != nil {
		switch {
		case errors.Is(err, infrastructure.ErrTicketNotFound):
			infrastructure.WriteError(w, http.StatusNotFound, "ticket not found")
		case errors.Is(err, infrastructure.ErrTicketAlreadyTaken):
			infrastructure.WriteError(w, http.StatusConflict, "ticket already assigned")
		default:
			log.Printf("ticket: failed to assign: %v", err)
			infrastructure.WriteError(w, http.StatusInternalServerError, "failed to assign ticket")
		}
		return
	}

	t, err := h.tickets.GetByID(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to load ticket")
		return
	}
	h.notifier.TicketAssigned(r.Context(), t)
	infrastructure.WriteData(w, http.StatusOK, t)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetchVisible(w, r)
	if !ok {
		return
	}
	caller, _ := auth.IdentityFrom(r.Context())
	if caller.Role != user.RoleAdmin && (t.AssignedToID == nil || *t.AssignedToID != caller.UserID) {
		infrastructure.WriteError(w, http.StatusForbidden, "only the assignee can unassign a ticket")
		return
	}

	if err := h.tickets.Unassign(r.Context(), t.ID); err != nil {
		log.Printf("ticket: failed to unassign: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to unassign ticket")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": t.ID.String()})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetchVisible(w, r)
	if !ok {
		return
	}
	caller, _ := auth.IdentityFrom(r.Context())
	if caller.Role != user.RoleAdmin && caller.UserID != t.CreatedByID {
		infrastructure.WriteError(w, http.StatusForbidden, "only the creator can delete a ticket")
		return
	}

	if err := h.tickets.Delete(r.Context(), t.ID); err != nil {
		log.Printf("ticket: failed to delete: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to delete ticket")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": t.ID.String()})
}

// fetchVisible loads the ticket from the path id and enforces that the
// caller is the creator, the assignee, or staff.
func (h *Handler) fetchVisible(w http.ResponseWriter, r *http.Request) (*Ticket, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid ticket id")
		return nil, false
	}

	t, err := h.tickets.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, infrastructure.ErrTicketNotFound) {
			infrastructure.WriteError(w, http.StatusNotFound, "ticket not found")
			return nil, false
		}
		log.Printf("ticket: failed to load: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to load ticket")
		return nil, false
	}

	caller, _ := auth.IdentityFrom(r.Context())
	switch {
	case caller.Role == user.RoleAdmin || caller.Role == user.RoleTechnician:
	case caller.UserID == t.CreatedByID:
	case t.AssignedToID != nil && *t.AssignedToID == caller.UserID:
	default:
		infrastructure.WriteError(w, http.StatusForbidden, "not allowed to view this ticket")
		return nil, false
	}
	return t, true
}

func SetupRoutes(r *mux.Router, h *Handler, mw *auth.Middleware) {
	tech := mw.RequireRole(user.RoleTechnician)
	r.HandleFunc("/api/ticket/create", mw.Require(h.Create)).Methods("POST")
	r.HandleFunc("/api/ticket/my-tickets", mw.Require(h.MyTickets)).Methods("GET")
	r.HandleFunc("/api/ticket/open", tech(h.Open)).Methods("GET")
	r.HandleFunc("/api/ticket/assigned", tech(h.Assigned)).Methods("GET")
	r.HandleFunc("/api/ticket/export", mw.RequireRole(user.RoleAdmin)(h.Export)).Methods("GET")
	r.HandleFunc("/api/ticket/{id}", mw.Require(h.Get)).Methods("GET")
	r.HandleFunc("/api/ticket/{id}", mw.Require(h.Update)).Methods("PUT")
	r.HandleFunc("/api/ticket/{id}", mw.Require(h.Delete)).Methods("DELETE")
	r.HandleFunc("/api/ticket/{id}/status", mw.Require(h.UpdateStatus)).Methods("PATCH")
	r.HandleFunc("/api/ticket/{id}/assign", tech(h.Assign)).Methods("POST")
	r.HandleFunc("/api/ticket/{id}/unassign", mw.Require(h.Unassign)).Methods("POST")
}
