package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"helpdesk/internal/auth"
	"helpdesk/internal/user"
)

type staticGuard struct {
	participant bool
	err         error
}

func (g staticGuard) Participant(ctx context.Context, ticketID, userID uuid.UUID) (bool, error) {
	return g.participant, g.err
}

func historyRequest(ticketID string, caller auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+ticketID, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), caller))
	return mux.SetURLVars(req, map[string]string{"ticketId": ticketID})
}

func TestHistoryReturnsMessagesForParticipant(t *testing.T) {
	t.Parallel()
	repo := newMemMessageRepository()
	ticketID := uuid.New()
	senderID := uuid.New()
	for _, text := range []string{"first", "second"} {
		if err := repo.Save(context.Background(), &Message{
			TicketID: ticketID.String(),
			Message:  text,
			Sender:   Sender{ID: senderID.String(), Name: "Alice", Role: user.RoleUser},
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	h := NewHandler(nil, repo, staticGuard{participant: true})
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest(ticketID.String(), auth.Identity{UserID: senderID, Role: user.RoleUser}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Success bool      `json:"success"`
		Data    []Message `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data) != 2 {
		t.Fatalf("body = %+v, want success with 2 messages", body)
	}
	if body.Data[0].Seq != 1 || body.Data[1].Seq != 2 {
		t.Fatalf("history out of order: %+v", body.Data)
	}
}

func TestHistoryReturnsEmptyArrayNotNull(t *testing.T) {
	t.Parallel()
	h := NewHandler(nil, newMemMessageRepository(), staticGuard{participant: true})
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest(uuid.NewString(), auth.Identity{UserID: uuid.New(), Role: user.RoleUser}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body.Data) != "[]" {
		t.Fatalf("data = %s, want []", body.Data)
	}
}

func TestHistoryAccessControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		role       string
		guard      staticGuard
		wantStatus int
	}{
		{"non-participant is rejected", user.RoleUser, staticGuard{participant: false}, http.StatusForbidden},
		{"participant technician allowed", user.RoleTechnician, staticGuard{participant: true}, http.StatusOK},
		{"admin bypasses participation", user.RoleAdmin, staticGuard{participant: false}, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(nil, newMemMessageRepository(), tt.guard)
			rec := httptest.NewRecorder()
			h.History(rec, historyRequest(uuid.NewString(), auth.Identity{UserID: uuid.New(), Role: tt.role}))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHistoryRejectsMalformedTicketID(t *testing.T) {
	t.Parallel()
	h := NewHandler(nil, newMemMessageRepository(), staticGuard{participant: true})
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest("not-a-uuid", auth.Identity{UserID: uuid.New(), Role: user.RoleUser}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryTimestampsSurviveRoundTrip(t *testing.T) {
	t.Parallel()
	repo := newMemMessageRepository()
	ticketID := uuid.New()
	before := time.Now().UTC().Add(-time.Second)
	if err := repo.Save(context.Background(), &Message{
		TicketID: ticketID.String(),
		Message:  "stamped",
		Sender:   Sender{ID: uuid.NewString()},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := NewHandler(nil, repo, staticGuard{participant: true})
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest(ticketID.String(), auth.Identity{UserID: uuid.New(), Role: user.RoleAdmin}))

	var body struct {
		Data []Message `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].CreatedAt.Before(before) {
		t.Fatalf("data = %+v, want one recent message", body.Data)
	}
}
