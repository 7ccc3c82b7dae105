package internship

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var (
	ErrNotFound           = fmt.Errorf("internship %w", domain.ErrNotFound)
	ErrDepartmentNotFound = fmt.Errorf("department %w", domain.ErrNotFound)
)

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidTransition, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
