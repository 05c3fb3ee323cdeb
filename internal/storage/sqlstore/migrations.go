package sqlstore

import (
	"context"
	"fmt"
)

// schema sets up the expense tables. It is valid for both SQLite and PostgreSQL.
// Child tables are keyed by (expense_id, id) since item and person IDs are only
// unique within their expense.
const schema = `
CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL,
    payer_name TEXT NOT NULL,
    restaurant_name TEXT NOT NULL DEFAULT '',
    subtotal TEXT NOT NULL,
    tax TEXT,
    service_charge TEXT,
    discount TEXT,
    total_amount TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    expense_id TEXT NOT NULL,
    id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    name TEXT NOT NULL,
    price TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    total_quantity INTEGER NOT NULL,
    PRIMARY KEY (expense_id, id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS people (
    expense_id TEXT NOT NULL,
    id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    name TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    tax_share TEXT NOT NULL,
    service_charge_share TEXT NOT NULL,
    discount_share TEXT NOT NULL,
    total_owed TEXT NOT NULL,
    finished INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (expense_id, id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_claims (
    expense_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (expense_id, item_id, person_id),
    FOREIGN KEY (expense_id, item_id) REFERENCES items(expense_id, id) ON DELETE CASCADE,
    FOREIGN KEY (expense_id, person_id) REFERENCES people(expense_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_items_expense_id ON items(expense_id);
CREATE INDEX IF NOT EXISTS idx_people_expense_id ON people(expense_id);
CREATE INDEX IF NOT EXISTS idx_item_claims_expense_id ON item_claims(expense_id);
`

// Migrate executes the schema setup. It is safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
