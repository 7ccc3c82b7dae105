package pgstore

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

var notificationColumns = []string{
	"id", "user_id", "type", "title", "message", "related_entity_type",
	"related_entity_id", "is_read", "read_at", "created_at",
}

type notificationRepo struct{ q dialect.ExecQuerier }

func (r notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query, args := builder().Insert(tableNotifications).
		Columns(notificationColumns...).
		Values(
			n.ID, n.UserID, string(n.Type), n.Title, n.Message, nullString(n.RelatedEntityType),
			nullID(n.RelatedEntityID), n.IsRead, nullTime(n.ReadAt), n.CreatedAt,
		).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create notification: %w", err)
	}
	return nil
}

func (r notificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	sel := builder().Select(notificationColumns...).
		From(sql.Table(tableNotifications)).
		Where(sql.EQ("user_id", userID)).
		OrderBy(sql.Desc("created_at"), sql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	if offset > 0 {
		sel.Offset(offset)
	}
	query, args := sel.Query()

	out := []*domain.Notification{}
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		var (
			n          domain.Notification
			entityType sql.NullString
			entityID   uuid.NullUUID
			readAt     sql.NullTime
		)
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &entityType,
			&entityID, &n.IsRead, &readAt, &n.CreatedAt,
		)
		if err != nil {
			return err
		}
		n.RelatedEntityType = entityType.String
		n.RelatedEntityID = idPtr(entityID)
		n.ReadAt = timePtr(readAt)
		out = append(out, &n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list notifications: %w", err)
	}
	return out, nil
}

func (r notificationRepo) owned(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	query, args := builder().Select(sql.Count("*")).
		From(sql.Table(tableNotifications)).
		Where(sql.And(sql.EQ("id", id), sql.EQ("user_id", userID))).
		Query()
	n, err := queryInt(ctx, r.q, query, args)
	return n > 0, err
}

func (r notificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	query, args := builder().Update(tableNotifications).
		Set("is_read", true).
		Set("read_at", at).
		Where(sql.And(sql.EQ("id", id), sql.EQ("user_id", userID), sql.EQ("is_read", false))).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return false, fmt.Errorf("pgstore: mark notification read: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	found, err := r.owned(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("pgstore: mark notification read: %w", err)
	}
	return found, nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	query, args := builder().Update(tableNotifications).
		Set("is_read", true).
		Set("read_at", at).
		Where(sql.And(sql.EQ("user_id", userID), sql.EQ("is_read", false))).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return 0, fmt.Errorf("pgstore: mark all notifications read: %w", err)
	}
	return int(n), nil
}

func (r notificationRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	query, args := builder().Delete(tableNotifications).
		Where(sql.And(sql.EQ("id", id), sql.EQ("user_id", userID))).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return false, fmt.Errorf("pgstore: delete notification: %w", err)
	}
	return n > 0, nil
}

func (r notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args := builder().Select(sql.Count("*")).
		From(sql.Table(tableNotifications)).
		Where(sql.And(sql.EQ("user_id", userID), sql.EQ("is_read", false))).
		Query()
	n, err := queryInt(ctx, r.q, query, args)
	if err != nil {
		return 0, fmt.Errorf("pgstore: count unread notifications: %w", err)
	}
	return n, nil
}
