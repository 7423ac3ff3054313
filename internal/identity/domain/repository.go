package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists users.
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// AppendOrder adds an order id to the user's order list. Appending the
	// same order twice is a no-op.
	AppendOrder(ctx context.Context, userID, orderID uuid.UUID) error
}
