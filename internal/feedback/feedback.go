package feedback

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
	"helpdesk/internal/database"
)

type Repository interface {
	Create(ctx context.Context, f *database.Feedback) error
	Recent(ctx context.Context, limit int) ([]database.Feedback, error)
}

type gormRepository struct {
	db *database.Database
}

func NewGormRepository(db *database.Database) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, f *database.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *gormRepository) Recent(ctx context.Context, limit int) ([]database.Feedback, error) {
	var feedbacks []database.Feedback
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&feedbacks).Error
	return feedbacks, err
}

type Handler struct {
	feedbacks Repository
}

func NewHandler(feedbacks Repository) *Handler {
	return &Handler{feedbacks: feedbacks}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
		Rating  int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Subject == "" || req.Message == "" {
		infrastructure.WriteError(w, http.StatusBadRequest, "subject and message are required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		infrastructure.WriteError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	f := &database.Feedback{
		UserID:  id.UserID.String(),
		Subject: req.Subject,
		Message: req.Message,
		Rating:  req.Rating,
	}
	if err := h.feedbacks.Create(r.Context(), f); err != nil {
		log.Printf("feedback: failed to save: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}
	infrastructure.WriteData(w, http.StatusCreated, f)
}

// Recent returns the newest feedback entries as a bare array, which is
// the shape the feedback page consumes.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	feedbacks, err := h.feedbacks.Recent(r.Context(), 20)
	if err != nil {
		log.Printf("feedback: failed to list: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if feedbacks == nil {
		feedbacks = []database.Feedback{}
	}
	infrastructure.WriteJSON(w, http.StatusOK, feedbacks)
}

func SetupRoutes(r *mux.Router, h *Handler, mw *auth.Middleware) {
	r.HandleFunc("/api/feedback", mw.Require(h.Submit)).Methods("POST")
	r.HandleFunc("/api/feedback", mw.Require(h.Recent)).Methods("GET")
}
