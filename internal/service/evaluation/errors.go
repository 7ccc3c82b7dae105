package evaluation

import (
	"errors"
	"fmt"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var (
	ErrNotFound            = fmt.Errorf("evaluation %w", domain.ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", domain.ErrNotFound)
	ErrInternshipNotFound  = fmt.Errorf("internship %w", domain.ErrNotFound)
)

func storeErr(op string, err error, notFound error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
