package repositories

import (
	"context"
	"fmt"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipientID int64, id uuid.UUID, at time.Time) error
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepo(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (id, organization_id, recipient_id, sender_id, request_id, kind, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.OrganizationID,
		n.RecipientID,
		n.SenderID,
		n.RequestID,
		n.Kind,
		n.Subject,
		n.Body,
		n.CreatedAt,
	)
	return err
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, organization_id, recipient_id, sender_id, request_id, kind, subject, body, read_at, created_at
		FROM messages
		WHERE recipient_id = $1 AND ($2 = false OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.OrganizationID,
			&n.RecipientID,
			&n.SenderID,
			&n.RequestID,
			&n.Kind,
			&n.Subject,
			&n.Body,
			&n.ReadAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipientID int64, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE messages SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_id = $2
	`
	tag, err := r.db.Exec(ctx, query, id, recipientID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, common.ErrNotFound)
	}
	return nil
}
