package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"helpdesk/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListByCreator(ctx context.Context, creator uuid.UUID) ([]*Ticket, error)
	ListOpen(ctx context.Context) ([]*Ticket, error)
	ListByAssignee(ctx context.Context, assignee uuid.UUID) ([]*Ticket, error)
	ListAll(ctx context.Context) ([]*Ticket, error)
	Update(ctx context.Context, id uuid.UUID, title, description string, imageURLs []string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Assign(ctx context.Context, id, technician uuid.UUID) error
	Unassign(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Participant(ctx context.Context, ticketID, userID uuid.UUID) (bool, error)
}

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

// Each ticket row is joined with the creator and assignee names so list
// views render without extra lookups.
const ticketSelect = `
	SELECT t.id, t.title, t.description, t.image_urls, t.status,
	       t.created_by, c.name, t.assigned_to, COALESCE(a.name, ''),
	       t.created_at, t.updated_at
	FROM tickets t
	JOIN users c ON c.id = t.created_by
	LEFT JOIN users a ON a.id = t.assigned_to`

func scanTicket(row interface{ Scan(...interface{}) error }) (*Ticket, error) {
	var (
		t        Ticket
		assigned uuid.NullUUID
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, pq.Array(&t.ImageURLs), &t.Status,
		&t.CreatedByID, &t.CreatedBy, &assigned, &t.AssignedTo,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infrastructure.ErrTicketNotFound
		}
		return nil, err
	}
	if assigned.Valid {
		id := assigned.UUID
		t.AssignedToID = &id
	}
	if t.ImageURLs == nil {
		t.ImageURLs = []string{}
	}
	return &t, nil
}

func (r *postgresRepository) queryTickets(ctx context.Context, where string, args ...interface{}) ([]*Ticket, error) {
	rows, err := r.db.QueryContext(ctx, ticketSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *postgresRepository) Create(ctx context.Context, t *Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, title, description, image_urls, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		t.ID, t.Title, t.Description, pq.Array(t.ImageURLs), t.Status, t.CreatedByID, t.CreatedAt)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	row := r.db.QueryRowContext(ctx, ticketSelect+` WHERE t.id = $1`, id)
	return scanTicket(row)
}

func (r *postgresRepository) ListByCreator(ctx context.Context, creator uuid.UUID) ([]*Ticket, error) {
	return r.queryTickets(ctx, ` WHERE t.created_by = $1 ORDER BY t.created_at DESC`, creator)
}

func (r *postgresRepository) ListOpen(ctx context.Context) ([]*Ticket, error) {
	return r.queryTickets(ctx, ` WHERE t.status = $1 AND t.assigned_to IS NULL ORDER BY t.created_at`, StatusOpen)
}

func (r *postgresRepository) ListByAssignee(ctx context.Context, assignee uuid.UUID) ([]*Ticket, error) {
	return r.queryTickets(ctx, ` WHERE t.assigned_to = $1 ORDER BY t.created_at DESC`, assignee)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]*Ticket, error) {
	return r.queryTickets(ctx, ` ORDER BY t.created_at`)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, title, description string, imageURLs []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET title = $2, description = $3, image_urls = $4, updated_at = now() WHERE id = $1`,
		id, title, description, pq.Array(imageURLs))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return infrastructure.ErrTicketNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return infrastructure.ErrTicketNotFound
	}
	return nil
}

// Assign claims an unassigned ticket for a technician. The WHERE clause
// makes the claim atomic: two concurrent claims cannot both succeed.
func (r *postgresRepository) Assign(ctx context.Context, id, technician uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET assigned_to = $2, status = $3, updated_at = now()
		 WHERE id = $1 AND assigned_to IS NULL`,
		id, technician, StatusAssigned)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return infrastructure.ErrTicketAlreadyTaken
	}
	return nil
}

func (r *postgresRepository) Unassign(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET assigned_to = NULL, status = $2, updated_at = now() WHERE id = $1`,
		id, StatusOpen)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return infrastructure.ErrTicketNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return infrastructure.ErrTicketNotFound
	}
	return nil
}

func (r *postgresRepository) Participant(ctx context.Context, ticketID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM tickets
		    WHERE id = $1 AND (created_by = $2 OR assigned_to = $2)
		 )`, ticketID, userID).Scan(&ok)
	return ok, err
}
