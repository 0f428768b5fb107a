package chatclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoadHistory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/ticket-42" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":"m1","ticketId":"ticket-42","seq":1,"message":"hi","sender":{"id":"u1","name":"Ann","role":"user"}},
			{"id":"m2","ticketId":"ticket-42","seq":2,"message":"hello","sender":{"id":"u2","name":"Bob","role":"technician"}}
		]}`))
	}))
	t.Cleanup(srv.Close)

	client := &HistoryClient{BaseURL: srv.URL, Token: "tok"}
	got, err := client.LoadHistory(context.Background(), "ticket-42")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Message != "hi" || got[0].Sender.Name != "Ann" {
		t.Fatalf("first message = %+v", got[0])
	}
	if got[1].Seq != 2 {
		t.Fatalf("second message seq = %d, want 2", got[1].Seq)
	}
}

func TestLoadHistoryFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":`))
			},
		},
		{
			name: "application failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"message":"forbidden"}`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			client := &HistoryClient{BaseURL: srv.URL}
			_, err := client.LoadHistory(context.Background(), "ticket-42")
			if !errors.Is(err, ErrHistoryUnavailable) {
				t.Fatalf("err = %v, want ErrHistoryUnavailable", err)
			}
		})
	}

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		client := &HistoryClient{BaseURL: "http://127.0.0.1:1"}
		_, err := client.LoadHistory(context.Background(), "ticket-42")
		if !errors.Is(err, ErrHistoryUnavailable) {
			t.Fatalf("err = %v, want ErrHistoryUnavailable", err)
		}
	})
}
