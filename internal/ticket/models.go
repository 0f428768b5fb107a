package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Ticket lifecycle. A ticket is created OPEN, becomes ASSIGNED when a
// technician claims it, IN_PROGRESS while being worked, and CLOSED when
// resolved.
const (
	StatusOpen       = "OPEN"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusClosed     = "CLOSED"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ImageURLs      []string   `json:"imageUrls"`
	Status         string     `json:"status"`
	CreatedByID    uuid.UUID  `json:"createdById"`
	CreatedBy      string     `json:"createdBy"`
	AssignedToID   *uuid.UUID `json:"assignedToId,omitempty"`
	AssignedTo     string     `json:"assignedTo,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
