package auth

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
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"helpdesk/infrastructure"
	"helpdesk/pkg/jwt"
)

// minPasswordEntropy rejects passwords like "password1" while still
// accepting reasonable passphrases.
const minPasswordEntropy = 50

// Account is the slice of the user record the auth flow works with.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// UserStore persists and looks up accounts. A new account is stored
// with the store's default role.
type UserStore interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

type Handler struct {
	users  UserStore
	tokens *jwt.Manager
}

func NewHandler(users UserStore, tokens *jwt.Manager) *Handler {
	return &Handler{users: users, tokens: tokens}
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		infrastructure.WriteError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	if err := passwordvalidator.Validate(req.Password, minPasswordEntropy); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	a := &Account{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), a); err != nil {
		if errors.Is(err, infrastructure.ErrUserAlreadyExists) {
			infrastructure.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("signup: failed to create user: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	infrastructure.WriteData(w, http.StatusCreated, map[string]string{"id": a.ID.String()})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		infrastructure.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		infrastructure.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.Generate(a.ID.String(), a.Role)
	if err != nil {
		log.Printf("signin: failed to generate token: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	// Flat response shape the frontend stores in local storage.
	infrastructure.WriteJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Role    string `json:"role"`
		ID      string `json:"id"`
		Name    string `json:"name"`
	}{true, token, a.Role, a.ID.String(), a.Name})
}

func SetupRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/api/auth/signup", h.SignUp).Methods("POST")
	r.HandleFunc("/api/auth/signin", h.SignIn).Methods("POST")
}
