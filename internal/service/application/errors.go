package application

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var (
	ErrNotFound           = fmt.Errorf("application %w", domain.ErrNotFound)
	ErrInternshipNotFound = fmt.Errorf("internship %w", domain.ErrNotFound)
	ErrUnavailable        = errors.New("internship is no longer available")
)

func storeErr(op string, err error, notFound error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateApplication)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
