package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store/memstore"
)

func newTestService(t *testing.T) (*notificationService, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New(memstore.New(), Options{DefaultPageSize: 2, MaxPageSize: 3}).(*notificationService)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCreate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	tests := []struct {
		name    string
		userID  uuid.UUID
		req     CreateRequest
		want    domain.NotificationType
		wantErr error
	}{
		{"empty type defaults to info", user, CreateRequest{Title: "Hello"}, domain.NotificationInfo, nil},
		{"explicit type", user, CreateRequest{Type: "warning", Title: "Heads up"}, domain.NotificationWarning, nil},
		{"unknown type", user, CreateRequest{Type: "urgent", Title: "x"}, "", domain.ErrValidation},
		{"missing title", user, CreateRequest{}, "", domain.ErrValidation},
		{"missing user", uuid.Nil, CreateRequest{Title: "x"}, "", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.Create(ctx, tt.userID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if n.Type != tt.want || n.IsRead || n.ReadAt != nil {
				t.Errorf("unexpected notification: %+v", n)
			}
		})
	}
}

func TestListForUserPaging(t *testing.T) {
	s, now := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	for i := range 4 {
		*now = now.Add(time.Minute)
		if _, err := s.Create(ctx, user, CreateRequest{Title: string(rune('a' + i))}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := s.ListForUser(ctx, user, 0, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 || got[0].Title != "d" || got[1].Title != "c" {
		t.Errorf("default page = %v, want [d c]", got)
	}

	got, _ = s.ListForUser(ctx, user, 50, 0)
	if len(got) != 3 {
		t.Errorf("len = %d, want limit capped at 3", len(got))
	}

	if _, err := s.ListForUser(ctx, user, 10, -1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative offset error = %v, want ErrValidation", err)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	s, now := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	n, err := s.Create(ctx, user, CreateRequest{Title: "Application accepted"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := *now
	if err := s.MarkRead(ctx, user, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	*now = now.Add(time.Hour)
	if err := s.MarkRead(ctx, user, n.ID); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}

	list, _ := s.ListForUser(ctx, user, 10, 0)
	if !list[0].IsRead || !list[0].ReadAt.Equal(first) {
		t.Errorf("read_at = %v, want %v", list[0].ReadAt, first)
	}

	if err := s.MarkRead(ctx, uuid.New(), n.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MarkRead by another user error = %v, want ErrNotFound", err)
	}
	if err := s.MarkRead(ctx, user, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MarkRead unknown id error = %v, want ErrNotFound", err)
	}
}

func TestMarkAllReadAndDelete(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	var last *domain.Notification
	for range 3 {
		n, err := s.Create(ctx, user, CreateRequest{Title: "x"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		last = n
	}
	if err := s.MarkRead(ctx, user, last.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	if n, _ := s.UnreadCount(ctx, user); n != 2 {
		t.Errorf("UnreadCount = %d, want 2", n)
	}
	if n, _ := s.MarkAllRead(ctx, user); n != 2 {
		t.Errorf("MarkAllRead = %d, want 2", n)
	}
	if n, _ := s.UnreadCount(ctx, user); n != 0 {
		t.Errorf("UnreadCount = %d, want 0", n)
	}

	if err := s.Delete(ctx, uuid.New(), last.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete by another user error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, user, last.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, user, last.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
