package pasetotoken

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the app-facing token payload.
type Claims struct {
	Type TokenType

	UserID    uuid.UUID
	Role      domain.Role
	SessionID *uuid.UUID

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
	Subject   string
}

// Actor is the caller the token speaks for.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{UserID: c.UserID, Role: c.Role}
}

func (c *Claims) GetUserID() uuid.UUID { return c.UserID }

func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }

func (c *Claims) GetTokenType() string { return string(c.Type) }

func (c *Claims) IsExpired() bool { return time.Now().After(c.ExpiresAt) }
