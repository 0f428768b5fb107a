package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"helpdesk/config"
	"helpdesk/infrastructure"
	"helpdesk/internal/auth"
	"helpdesk/internal/chat"
	"helpdesk/internal/feedback"
	"helpdesk/internal/notification"
	"helpdesk/internal/ticket"
	"helpdesk/internal/user"
)

type Server struct {
	handler http.Handler
}

func NewServer(
	cfg *config.Config,
	mw *auth.Middleware,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	ticketHandler *ticket.Handler,
	notificationHandler *notification.Handler,
	feedbackHandler *feedback.Handler,
	chatHandler *chat.Handler,
) *Server {
	r := mux.NewRouter()
	r.Use(Logger)
	r.Use(RateLimit(cfg.RateLimitRPS))

	r.HandleFunc("/health", healthCheck).Methods("GET")

	auth.SetupRoutes(r, authHandler)
	user.SetupRoutes(r, userHandler, mw)
	ticket.SetupRoutes(r, ticketHandler, mw)
	notification.SetupRoutes(r, notificationHandler, mw)
	feedback.SetupRoutes(r, feedbackHandler, mw)
	chat.SetupRoutes(r, chatHandler, mw)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return &Server{handler: c.Handler(r)}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.handler)
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	infrastructure.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}
