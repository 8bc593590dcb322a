// Package users persists accounts. PostgreSQL in production, an
// in-memory map otherwise. Lookups by email expect the caller to have
// lowercased the address already.
package users

import (
	"context"

	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

// Store is the persistence boundary for user accounts.
type Store interface {
	// Create inserts a new user. apperr.ErrConflict if the email is taken.
	Create(ctx context.Context, user models.User) error

	// GetByEmail returns the user with the given email, or apperr.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (models.User, error)

	// GetByID returns the user with the given id, or apperr.ErrNotFound.
	GetByID(ctx context.Context, id string) (models.User, error)
}
