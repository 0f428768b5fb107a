package notification

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
	"helpdesk/internal/database"
)

type Handler struct {
	notifications Repository
}

func NewHandler(notifications Repository) *Handler {
	return &Handler{notifications: notifications}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	notifications, err := h.notifications.ListByUser(r.Context(), id.UserID)
	if err != nil {
		log.Printf("notification: failed to list: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []database.Notification{}
	}
	infrastructure.WriteData(w, http.StatusOK, notifications)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	nid, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	if err := h.notifications.MarkRead(r.Context(), id.UserID, nid); err != nil {
		log.Printf("notification: failed to mark read: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": nid.String()})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if err := h.notifications.MarkAllRead(r.Context(), id.UserID); err != nil {
		log.Printf("notification: failed to mark all read: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]bool{"updated": true})
}

func SetupRoutes(r *mux.Router, h *Handler, mw *auth.Middleware) {
	r.HandleFunc("/api/notification", mw.Require(h.List)).Methods("GET")
	r.HandleFunc("/api/notification/read-all", mw.Require(h.MarkAllRead)).Methods("PATCH", "POST")
	r.HandleFunc("/api/notification/{id}/read", mw.Require(h.MarkRead)).Methods("PATCH", "POST")
}
