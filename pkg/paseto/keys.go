package pasetotoken

import (
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/Alijeyrad/medstage_backend/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, shared key with the identity service
	ModePublic Mode = "public" // v4.public, medstage usually holds the public key only
)

type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// CanIssue reports whether the keys can mint tokens, not just verify them.
func (k Keys) CanIssue() bool {
	return (k.Mode == ModeLocal && k.Symmetric != nil) || (k.Mode == ModePublic && k.Secret != nil)
}

// NewFromConfig builds a Manager from the authentication.paseto section.
func NewFromConfig(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := LoadKeys(p)
	if err != nil {
		return nil, err
	}
	return New(Config{
		Mode:      keys.Mode,
		Issuer:    p.Issuer,
		Audience:  p.Audience,
		AccessTTL: time.Duration(p.AccessTTLMinutes) * time.Minute,
	}, keys)
}

// LoadKeys decodes the hex keys of p. In public mode a secret key alone is
// enough (the public half is derived) and a public key alone gives a
// verify-only manager.
func LoadKeys(p config.PasetoConfig) (Keys, error) {
	switch Mode(p.Mode) {
	case ModeLocal:
		raw := strings.TrimSpace(p.LocalKeyHex)
		if raw == "" {
			return Keys{}, ErrConfig{Field: "local_key_hex", Msg: "required in local mode"}
		}
		k, err := paseto.V4SymmetricKeyFromHex(raw)
		if err != nil {
			return Keys{}, ErrConfig{Field: "local_key_hex", Msg: err.Error()}
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		out := Keys{Mode: ModePublic}

		if raw := strings.TrimSpace(p.SecretKeyHex); raw != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(raw)
			if err != nil {
				return Keys{}, ErrConfig{Field: "secret_key_hex", Msg: err.Error()}
			}
			pk := sk.Public()
			out.Secret, out.Public = &sk, &pk
		}
		if raw := strings.TrimSpace(p.PublicKeyHex); raw != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(raw)
			if err != nil {
				return Keys{}, ErrConfig{Field: "public_key_hex", Msg: err.Error()}
			}
			out.Public = &pk
		}
		if out.Public == nil {
			return Keys{}, ErrConfig{Field: "public_key_hex", Msg: "public mode needs public_key_hex or secret_key_hex"}
		}
		return out, nil

	default:
		return Keys{}, ErrConfig{Field: "mode", Msg: "unknown mode " + p.Mode}
	}
}

// NewLocalKeys generates a fresh v4.local key, for tests and the token command.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
