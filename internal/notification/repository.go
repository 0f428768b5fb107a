package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"helpdesk/internal/database"
)

type Repository interface {
	Create(ctx context.Context, n *database.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]database.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type gormRepository struct {
	db *database.Database
}

func NewGormRepository(db *database.Database) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *database.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]database.Notification, error) {
	var notifications []database.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("id = ? AND user_id = ?", id.String(), userID.String()).
		Update("read", true).Error
}

func (r *gormRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("user_id = ? AND read = false", userID.String()).
		Update("read", true).Error
}
