package di

import (
	"database/sql"
	"time"

	"github.com/google/wire"

	"helpdesk/config"
	"helpdesk/internal/api"
	"helpdesk/internal/auth"
	"helpdesk/internal/chat"
	"helpdesk/internal/database"
	"helpdesk/internal/email"
	"helpdesk/internal/feedback"
	"helpdesk/internal/notification"
	"helpdesk/internal/ticket"
	"helpdesk/internal/user"
	"helpdesk/pkg/jwt"
)

// App bundles what main needs to run: the HTTP surface and the chat hub
// whose Run loop main owns.
type App struct {
	Server *api.Server
	Hub    *chat.Hub
}

func NewApp(server *api.Server, hub *chat.Hub) *App {
	return &App{Server: server, Hub: hub}
}

func ProvideSQLDB(db *database.Database) (*sql.DB, error) {
	return db.SQL()
}

func ProvideTokenManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWTSecret, 24*time.Hour)
}

func ProvideUserRepository(db *sql.DB) user.Repository {
	return user.NewPostgresRepository(db)
}

func ProvideTicketRepository(db *sql.DB) ticket.Repository {
	return ticket.NewPostgresRepository(db)
}

func ProvideMessageRepository(db *sql.DB) chat.MessageRepository {
	return chat.NewPostgresMessageRepository(db)
}

func ProvideNotificationRepository(db *database.Database) notification.Repository {
	return notification.NewGormRepository(db)
}

func ProvideFeedbackRepository(db *database.Database) feedback.Repository {
	return feedback.NewGormRepository(db)
}

// ProvideEmailSender returns nil when SMTP is not configured; the
// notification service treats a nil sender as email disabled.
func ProvideEmailSender(cfg *config.Config) *email.Sender {
	if cfg.SMTPHost == "" {
		return nil
	}
	return email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}

func ProvideNotifier(service *notification.Service) ticket.Notifier {
	return service
}

func ProvideUserDirectory(users user.Repository) chat.UserDirectory {
	return users
}

func ProvideTicketGuard(tickets ticket.Repository) chat.TicketGuard {
	return tickets
}

var Set = wire.NewSet(
	ProvideSQLDB,
	ProvideTokenManager,
	ProvideUserRepository,
	user.NewAuthStore,
	ProvideTicketRepository,
	ProvideMessageRepository,
	ProvideNotificationRepository,
	ProvideFeedbackRepository,
	ProvideEmailSender,
	ProvideNotifier,
	ProvideUserDirectory,
	ProvideTicketGuard,
	auth.NewMiddleware,
	auth.NewHandler,
	user.NewHandler,
	ticket.NewHandler,
	notification.NewService,
	notification.NewHandler,
	feedback.NewHandler,
	chat.NewHub,
	chat.NewHandler,
	api.NewServer,
	NewApp,
)
