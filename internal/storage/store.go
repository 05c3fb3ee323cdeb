// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/forkthebill/internal/models"
)

// Store defines the interface for expense storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// SaveExpense upserts the whole aggregate keyed by expense.ID, replacing its
	// items, people and claims.
	SaveExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by its ID.
	// Returns an error wrapping models.ErrNotFound if it does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// GetExpenseBySlug retrieves an expense by its slug.
	// Returns an error wrapping models.ErrNotFound if it does not exist.
	GetExpenseBySlug(ctx context.Context, slug string) (*models.Expense, error)

	// ExistsBySlug reports whether any expense uses the slug.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
