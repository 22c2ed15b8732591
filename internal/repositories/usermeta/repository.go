// Package usermeta persists the singleton vault-metadata record.
package usermeta

import (
	"context"

	"github.com/pwdbox/pwdbox/internal/models"
)

// Repository is the storage contract for the single UserMeta row.
//
// The record is keyed by a fixed identifier, so Save always writes the same
// logical row and Get either returns it or reports that the vault has never
// been initialized.
type Repository interface {
	// Get returns the metadata record, or (nil, nil) if the vault has not
	// been initialized.
	Get(ctx context.Context) (*models.UserMeta, error)

	// Exists reports whether the metadata record is present.
	Exists(ctx context.Context) (bool, error)

	// Save inserts or replaces the metadata record.
	Save(ctx context.Context, meta *models.UserMeta) error

	// Delete removes the metadata record if present.
	Delete(ctx context.Context) error
}
