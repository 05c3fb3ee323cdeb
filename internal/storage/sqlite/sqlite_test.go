package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
	"github.com/mmynk/forkthebill/internal/storage/storagetest"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "forkthebill-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	storagetest.Run(t, store)
}

func TestSQLiteStore_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file at %s: %v", dbPath, err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	original := storagetest.NewExpense()
	if err := store.SaveExpense(ctx, original); err != nil {
		t.Fatalf("SaveExpense failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	retrieved, err := reopened.GetExpenseBySlug(ctx, original.Slug)
	if err != nil {
		t.Fatalf("GetExpenseBySlug after reopen failed: %v", err)
	}
	storagetest.AssertSameExpense(t, original, retrieved)
}

func TestSQLiteStore_KeepsSubCentPrecision(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	e := storagetest.NewExpense()
	e.Items = append(e.Items, models.Item{ID: "odd", Name: "Odd", Price: money.MustParse("3.333"), Quantity: 1, TotalQuantity: 3})
	if err := store.SaveExpense(ctx, e); err != nil {
		t.Fatalf("SaveExpense failed: %v", err)
	}

	retrieved, err := store.GetExpenseBySlug(ctx, e.Slug)
	if err != nil {
		t.Fatalf("GetExpenseBySlug failed: %v", err)
	}
	got := retrieved.Items[len(retrieved.Items)-1].Price
	if !got.Equal(money.MustParse("3.333")) {
		t.Errorf("price mismatch: got %s, want 3.333", got.Decimal())
	}
}
