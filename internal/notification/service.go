package notification

import (
	"context"
	"fmt"
	"log"

	"helpdesk/internal/database"
	"helpdesk/internal/email"
	"helpdesk/internal/ticket"
	"helpdesk/internal/user"
)

// Service fans ticket events out into per-user notification rows and
// best-effort emails. Failures are logged, never propagated: a broken
// SMTP relay must not fail a ticket request.
type Service struct {
	notifications Repository
	users         user.Repository
	mailer        *email.Sender // nil when SMTP is not configured
}

func NewService(notifications Repository, users user.Repository, mailer *email.Sender) *Service {
	return &Service{notifications: notifications, users: users, mailer: mailer}
}

var _ ticket.Notifier = (*Service)(nil)

func (s *Service) TicketCreated(ctx context.Context, t *ticket.Ticket) {
	technicians, err := s.users.ListByRole(ctx, user.RoleTechnician)
	if err != nil {
		log.Printf("notification: failed to list technicians: %v", err)
		return
	}
	message := fmt.Sprintf("New ticket: %s", t.Title)
	for _, tech := range technicians {
		s.record(ctx, tech.ID.String(), t.ID.String(), message)
	}
}

func (s *Service) TicketAssigned(ctx context.Context, t *ticket.Ticket) {
	s.record(ctx, t.CreatedByID.String(), t.ID.String(),
		fmt.Sprintf("Your ticket %q was assigned to %s", t.Title, t.AssignedTo))

	if s.mailer == nil {
		return
	}
	creator, err := s.users.GetByID(ctx, t.CreatedByID)
	if err != nil {
		log.Printf("notification: failed to load ticket creator: %v", err)
		return
	}
	if err := s.mailer.SendTicketAssigned(creator.Email, creator.Name, t.Title, t.AssignedTo); err != nil {
		log.Printf("notification: failed to send assignment email: %v", err)
	}
}

func (s *Service) TicketStatusChanged(ctx context.Context, t *ticket.Ticket, previous string) {
	if t.Status == previous {
		return
	}
	s.record(ctx, t.CreatedByID.String(), t.ID.String(),
		fmt.Sprintf("Your ticket %q moved from %s to %s", t.Title, previous, t.Status))

	if t.Status != ticket.StatusClosed || s.mailer == nil {
		return
	}
	creator, err := s.users.GetByID(ctx, t.CreatedByID)
	if err != nil {
		log.Printf("notification: failed to load ticket creator: %v", err)
		return
	}
	if err := s.mailer.SendTicketClosed(creator.Email, creator.Name, t.Title); err != nil {
		log.Printf("notification: failed to send closure email: %v", err)
	}
}

func (s *Service) record(ctx context.Context, userID, ticketID, message string) {
	n := &database.Notification{
		UserID:   userID,
		TicketID: ticketID,
		Message:  message,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("notification: failed to record notification: %v", err)
	}
}
