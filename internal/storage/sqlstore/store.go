// Package sqlstore implements storage.Store on top of database/sql.
// The SQLite and PostgreSQL backends share it and differ only in driver and placeholder style.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
	"github.com/mmynk/forkthebill/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect selects the placeholder style of the underlying driver.
type Dialect int

const (
	// QuestionMarks uses ? placeholders (SQLite).
	QuestionMarks Dialect = iota
	// DollarNumbers uses $1, $2, ... placeholders (PostgreSQL).
	DollarNumbers
)

// Store persists expense aggregates in four tables: expenses, items, people and item_claims.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != DollarNumbers {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveExpense upserts the expense row and replaces all of its children in one transaction.
func (s *Store) SaveExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		return fmt.Errorf("failed to save expense: id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO expenses (id, slug, created_at, payer_name, restaurant_name, subtotal, tax, service_charge, discount, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			payer_name = excluded.payer_name,
			restaurant_name = excluded.restaurant_name,
			subtotal = excluded.subtotal,
			tax = excluded.tax,
			service_charge = excluded.service_charge,
			discount = excluded.discount,
			total_amount = excluded.total_amount`),
		expense.ID, expense.Slug, expense.CreatedAt.UnixMilli(), expense.PayerName, expense.RestaurantName,
		amount(expense.Subtotal), optionalAmount(expense.Tax), optionalAmount(expense.ServiceCharge),
		optionalAmount(expense.Discount), amount(expense.TotalAmount),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}

	for _, table := range []string{"item_claims", "items", "people"} {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE expense_id = ?"), expense.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, item := range expense.Items {
		_, err = tx.ExecContext(ctx, s.rebind(
			"INSERT INTO items (expense_id, id, sort_order, name, price, quantity, total_quantity) VALUES (?, ?, ?, ?, ?, ?, ?)"),
			expense.ID, item.ID, i, item.Name, amount(item.Price), item.Quantity, item.TotalQuantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for i, p := range expense.People {
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO people (expense_id, id, sort_order, name, subtotal, tax_share, service_charge_share, discount_share, total_owed, finished)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			expense.ID, p.ID, i, p.Name, amount(p.Subtotal), amount(p.TaxShare), amount(p.ServiceChargeShare),
			amount(p.DiscountShare), amount(p.TotalOwed), boolToInt(p.Finished),
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
	}

	for _, item := range expense.Items {
		for i, personID := range item.ClaimedBy {
			_, err = tx.ExecContext(ctx, s.rebind(
				"INSERT INTO item_claims (expense_id, item_id, person_id, sort_order) VALUES (?, ?, ?, ?)"),
				expense.ID, item.ID, personID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert claim: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including items, people and claims.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return s.getExpense(ctx, "id", expenseID)
}

// GetExpenseBySlug retrieves an expense by slug, including items, people and claims.
func (s *Store) GetExpenseBySlug(ctx context.Context, slug string) (*models.Expense, error) {
	return s.getExpense(ctx, "slug", slug)
}

// ExistsBySlug reports whether the slug is taken.
func (s *Store) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT 1 FROM expenses WHERE slug = ?"), slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return true, nil
}

func (s *Store) getExpense(ctx context.Context, column, value string) (*models.Expense, error) {
	expense := &models.Expense{}
	var (
		createdAt                    int64
		subtotal, total              string
		tax, serviceCharge, discount sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, slug, created_at, payer_name, restaurant_name, subtotal, tax, service_charge, discount, total_amount
		FROM expenses WHERE `+column+` = ?`),
		value,
	).Scan(&expense.ID, &expense.Slug, &createdAt, &expense.PayerName, &expense.RestaurantName,
		&subtotal, &tax, &serviceCharge, &discount, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("expense not found with %s: %s", column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expense.CreatedAt = time.UnixMilli(createdAt).UTC()
	if expense.Subtotal, err = money.Parse(subtotal); err != nil {
		return nil, fmt.Errorf("failed to read subtotal: %w", err)
	}
	if expense.TotalAmount, err = money.Parse(total); err != nil {
		return nil, fmt.Errorf("failed to read total amount: %w", err)
	}
	if expense.Tax, err = parseOptional(tax); err != nil {
		return nil, fmt.Errorf("failed to read tax: %w", err)
	}
	if expense.ServiceCharge, err = parseOptional(serviceCharge); err != nil {
		return nil, fmt.Errorf("failed to read service charge: %w", err)
	}
	if expense.Discount, err = parseOptional(discount); err != nil {
		return nil, fmt.Errorf("failed to read discount: %w", err)
	}

	claims, err := s.getClaims(ctx, expense.ID)
	if err != nil {
		return nil, err
	}
	if expense.Items, err = s.getItems(ctx, expense.ID, claims); err != nil {
		return nil, err
	}
	if expense.People, err = s.getPeople(ctx, expense.ID); err != nil {
		return nil, err
	}

	return expense, nil
}

func (s *Store) getClaims(ctx context.Context, expenseID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT item_id, person_id FROM item_claims WHERE expense_id = ? ORDER BY item_id, sort_order"),
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}
	defer rows.Close()

	claims := make(map[string][]string)
	for rows.Next() {
		var itemID, personID string
		if err := rows.Scan(&itemID, &personID); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims[itemID] = append(claims[itemID], personID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

func (s *Store) getItems(ctx context.Context, expenseID string, claims map[string][]string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT id, name, price, quantity, total_quantity FROM items WHERE expense_id = ? ORDER BY sort_order"),
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var (
			item  models.Item
			price string
		)
		if err := rows.Scan(&item.ID, &item.Name, &price, &item.Quantity, &item.TotalQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if item.Price, err = money.Parse(price); err != nil {
			return nil, fmt.Errorf("failed to read price of item %s: %w", item.ID, err)
		}
		item.ClaimedBy = claims[item.ID]
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *Store) getPeople(ctx context.Context, expenseID string) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, subtotal, tax_share, service_charge_share, discount_share, total_owed, finished
		FROM people WHERE expense_id = ? ORDER BY sort_order`),
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var (
			p        models.Person
			finished int
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Subtotal, &p.TaxShare, &p.ServiceChargeShare,
			&p.DiscountShare, &p.TotalOwed, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		p.Finished = finished != 0
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return people, nil
}

// amount keeps every stored digit; String would round to cents.
func amount(m money.Money) string {
	return m.Decimal().String()
}

func optionalAmount(m *money.Money) any {
	if m == nil {
		return nil
	}
	return amount(*m)
}

func parseOptional(s sql.NullString) (*money.Money, error) {
	if !s.Valid {
		return nil, nil
	}
	m, err := money.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
