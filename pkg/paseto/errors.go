package pasetotoken

import (
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

// ErrConfig reports a bad authentication.paseto setting.
type ErrConfig struct {
	Field string
	Msg   string
}

func (e ErrConfig) Error() string {
	if e.Field == "" {
		return "paseto: " + e.Msg
	}
	return fmt.Sprintf("paseto: authentication.paseto.%s: %s", e.Field, e.Msg)
}

// ErrInvalidToken matches domain.ErrUnauthorized so handlers can map it
// without importing this package.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("invalid token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }

func (e ErrInvalidToken) Is(target error) bool { return target == domain.ErrUnauthorized }
