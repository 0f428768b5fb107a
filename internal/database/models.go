package database

import "time"

// Notification is a per-user event record shown in the bell dropdown
// and on the notifications page.
type Notification struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	Message   string    `gorm:"not null" json:"message"`
	TicketID  string    `gorm:"type:uuid" json:"ticketId,omitempty"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feedback is a rating submitted from the feedback form.
type Feedback struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	Subject   string    `gorm:"not null" json:"subject"`
	Message   string    `gorm:"not null" json:"message"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
