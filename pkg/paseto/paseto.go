package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

type Config struct {
	Mode Mode

	Issuer   string
	Audience string

	AccessTTL time.Duration

	Implicit []byte
}

// Manager verifies the tokens of the identity service. Issue exists for
// local tooling and tests.
type Manager struct {
	cfg  Config
	keys Keys
	now  func() time.Time
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrConfig{Msg: "cfg.Mode must match keys.Mode"}
	}
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &Manager{cfg: cfg, keys: keys, now: time.Now}, nil
}

func (m *Manager) CanIssue() bool { return m.keys.CanIssue() }

// parser is rebuilt per call so time rules use the current clock.
func (m *Manager) parser() paseto.Parser {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.cfg.Issuer))
	p.AddRule(paseto.ForAudience(m.cfg.Audience))
	p.AddRule(paseto.ValidAt(m.now()))
	return p
}

// IssueAccess mints an access token for the actor.
func (m *Manager) IssueAccess(actor domain.Actor, sessionID *uuid.UUID) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	return m.issue(TokenTypeAccess, actor, sessionID, m.cfg.AccessTTL)
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	var (
		tok *paseto.Token
		err error
	)

	p := m.parser()
	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		tok, err = p.ParseV4Local(*m.keys.Symmetric, tokenStr, m.cfg.Implicit)
	case ModePublic:
		if m.keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		tok, err = p.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok, m.cfg.Issuer, m.cfg.Audience)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

// VerifyAccess is Verify restricted to access tokens.
func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrInvalidToken{Err: errors.New("not an access token")}
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, actor domain.Actor, sessionID *uuid.UUID, ttl time.Duration) (string, error) {
	now := m.now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetSubject(actor.UserID.String())

	tok.SetString("typ", string(tt))
	tok.SetString("uid", actor.UserID.String())
	tok.SetString("role", actor.Role.String())
	if sessionID != nil {
		tok.SetString("sid", sessionID.String())
	}

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return "", ErrConfig{Msg: "missing symmetric key"}
		}
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	case ModePublic:
		if m.keys.Secret == nil {
			return "", ErrConfig{Msg: "missing secret key"}
		}
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	default:
		return "", ErrConfig{Msg: "unknown mode"}
	}
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func extractClaims(tok *paseto.Token, iss, aud string) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}
	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}
	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	nbf, err := tok.GetNotBefore()
	if err != nil {
		return nil, err
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}

	out := &Claims{
		Issuer:    iss,
		Audience:  aud,
		TokenID:   jti,
		Subject:   sub,
		IssuedAt:  iat,
		NotBefore: nbf,
		ExpiresAt: exp,
	}

	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	uidStr, err := tok.GetString("uid")
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(uidStr); err != nil {
		return nil, err
	}

	roleStr, err := tok.GetString("role")
	if err != nil {
		return nil, err
	}
	if out.Role, err = domain.ParseRole(roleStr); err != nil {
		return nil, err
	}

	// sid is optional
	if sidStr, err := tok.GetString("sid"); err == nil {
		sid, err := uuid.Parse(sidStr)
		if err != nil {
			return nil, err
		}
		out.SessionID = &sid
	}

	return out, nil
}
