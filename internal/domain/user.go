package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is owned by the identity service; the core only reads it to resolve audiences.
type User struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Establishment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Department struct {
	ID              uuid.UUID  `json:"id"`
	EstablishmentID uuid.UUID  `json:"establishment_id"`
	Name            string     `json:"name"`
	ChiefID         *uuid.UUID `json:"chief_id,omitempty"`
}
