package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ipfolio/ipfolio/pkg/errors"
)

// Notification is one persisted record of a domain event, written by the
// worker consuming the patent event topic.
type Notification struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	PatentID  int64           `json:"patent_id"`
	ActorID   string          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationRepository persists consumed domain events.
type NotificationRepository struct {
	db querier
}

func NewNotificationRepository(db querier) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Record(ctx context.Context, n *Notification) error {
	payload := n.Payload
	if payload == nil {
		payload = json.RawMessage("{}")
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (event_type, patent_id, actor_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		n.EventType, n.PatentID, n.ActorID, payload,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "recording notification")
	}
	return nil
}

// Recent returns the latest notifications, newest first.
func (r *NotificationRepository) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, patent_id, actor_id, payload, created_at
		FROM notifications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing notifications")
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.EventType, &n.PatentID, &n.ActorID, &n.Payload, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning notification")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating notifications")
	}
	return out, nil
}
