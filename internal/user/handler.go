package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
)

type Handler struct {
	users Repository
}

func NewHandler(users Repository) *Handler {
	return &Handler{users: users}
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		infrastructure.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, RoleUser)
}

func (h *Handler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, RoleTechnician)
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request, role string) {
	users, err := h.users.ListByRole(r.Context(), role)
	if err != nil {
		log.Printf("user: failed to list %ss: %v", role, err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*User{}
	}
	infrastructure.WriteData(w, http.StatusOK, users)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !ValidRole(req.Role) {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.users.UpdateRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, infrastructure.ErrUserNotFound) {
			infrastructure.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("user: failed to update role: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "role": req.Role})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if caller, _ := auth.IdentityFrom(r.Context()); caller.UserID == id {
		infrastructure.WriteError(w, http.StatusBadRequest, "cannot delete own account")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, infrastructure.ErrUserNotFound) {
			infrastructure.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("user: failed to delete user: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"id": id.String()})
}

func SetupRoutes(r *mux.Router, h *Handler, mw *auth.Middleware) {
	admin := mw.RequireRole(RoleAdmin)
	r.HandleFunc("/api/user/profile", mw.Require(h.Profile)).Methods("GET")
	r.HandleFunc("/api/user/users", admin(h.ListUsers)).Methods("GET")
	r.HandleFunc("/api/user/technicians", admin(h.ListTechnicians)).Methods("GET")
	r.HandleFunc("/api/user/{id}/role", admin(h.UpdateRole)).Methods("PATCH")
	r.HandleFunc("/api/user/{id}", admin(h.Delete)).Methods("DELETE")
}
