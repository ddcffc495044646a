// Package repository defines how inventory snapshots are persisted between runs.
package repository

import (
	"context"
	"errors"

	"github.com/Houeta/stock-flow/internal/models"
)

// ErrStateNotFound is returned when no snapshot has been stored yet.
var ErrStateNotFound = errors.New("state not found")

// Supported storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// StateRepository stores the snapshot of the previous run.
type StateRepository interface {
	// GetState returns the last stored snapshot or ErrStateNotFound.
	GetState(ctx context.Context) (models.InventorySnapshot, error)
	// UpdateState replaces the stored snapshot.
	UpdateState(ctx context.Context, snapshot models.InventorySnapshot) error
	// Close releases the underlying resources.
	Close() error
}
