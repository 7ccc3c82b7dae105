package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Type              string
	Title             string
	Message           string
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
}

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service is the per-user notification ledger.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*domain.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	st   store.Store
	opts Options
	now  func() time.Time
}

func New(st store.Store, opts Options) Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 50
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	return &notificationService{st: st, opts: opts, now: time.Now}
}

func (s *notificationService) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*domain.Notification, error) {
	typ, err := domain.ParseNotificationType(req.Type)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	n := &domain.Notification{
		ID:                domain.NewID(),
		UserID:            userID,
		Type:              typ,
		Title:             req.Title,
		Message:           req.Message,
		RelatedEntityType: req.RelatedEntityType,
		RelatedEntityID:   req.RelatedEntityID,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.st.Notifications().Create(ctx, n); err != nil {
		return nil, persistence("create notification", err)
	}
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrValidation)
	}
	switch {
	case limit <= 0:
		limit = s.opts.DefaultPageSize
	case limit > s.opts.MaxPageSize:
		limit = s.opts.MaxPageSize
	}

	out, err := s.st.Notifications().ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, persistence("list notifications", err)
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.st.Notifications().MarkRead(ctx, userID, id, s.now().UTC())
	if err != nil {
		return persistence("mark notification read", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.st.Notifications().MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, persistence("mark all notifications read", err)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.st.Notifications().Delete(ctx, userID, id)
	if err != nil {
		return persistence("delete notification", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.st.Notifications().CountUnread(ctx, userID)
	if err != nil {
		return 0, persistence("count unread notifications", err)
	}
	return n, nil
}
