package notification

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var ErrNotFound = fmt.Errorf("notification %w", domain.ErrNotFound)

// persistence wraps a store failure so callers can match domain.ErrPersistence.
func persistence(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
