// Package entries persists encrypted credential entries.
package entries

import (
	"context"

	"github.com/pwdbox/pwdbox/internal/models"
)

// Repository is the storage contract for credential entries.
//
// Implementations report a missing id as common.ErrorNotFound; repeated
// deletion of the same id is therefore an error, not a no-op.
type Repository interface {
	// Insert stores a new entry and returns its assigned identifier.
	Insert(ctx context.Context, e *models.Entry) (int64, error)

	// GetAll lists every entry in insertion order.
	GetAll(ctx context.Context) ([]models.Entry, error)

	// GetByID returns a single entry.
	GetByID(ctx context.Context, id int64) (*models.Entry, error)

	// Update overwrites all mutable fields of an existing entry.
	Update(ctx context.Context, e *models.Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, id int64) error

	// Search returns entries whose software, account, or notes contain the
	// query, case-insensitively.
	Search(ctx context.Context, query string) ([]models.Entry, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
