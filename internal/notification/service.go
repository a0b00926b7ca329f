package notification

import (
	"context"

	"backend-ripple/internal/db"
	"backend-ripple/internal/stream"

	"github.com/google/uuid"
)

type Service struct {
	db     db.Querier
	events stream.Publisher
}

func NewService(dbq db.Querier, events stream.Publisher) *Service {
	if events == nil {
		events = stream.NopPublisher{}
	}
	return &Service{db: dbq, events: events}
}

// Create persists the notification and pushes it to the recipient's live
// sockets. Self-notifications are dropped.
func (s *Service) Create(ctx context.Context, n Notification) (Notification, error) {
	if n.RecipientID == n.ActorID {
		return Notification{}, nil
	}
	n.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient_id, actor_id, type, ref_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, n.ID, n.RecipientID, n.ActorID, n.Type, n.RefID)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return Notification{}, err
	}

	s.events.Publish(n.RecipientID, "notification:new", n)
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, recipient_id, actor_id, type, COALESCE(ref_id, ''), read, created_at
		FROM notifications
		WHERE recipient_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Type, &n.RefID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unread int
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND read=false
	`, userID).Scan(&unread); err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=true WHERE id=$1 AND recipient_id=$2
	`, id, userID)
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=true WHERE recipient_id=$1 AND read=false
	`, userID)
	return err
}
