package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/forkthebill/internal/ingestion"
	"github.com/mmynk/forkthebill/internal/lock"
	"github.com/mmynk/forkthebill/internal/metrics"
	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
	"github.com/mmynk/forkthebill/internal/slug"
	"github.com/mmynk/forkthebill/internal/storage"
)

// SlugGenerator hands out slugs that are free at the time of the call.
type SlugGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ExpenseService loads expenses, mutates them through the aggregate and saves them back.
// Mutations of one expense are serialized by slug.
type ExpenseService struct {
	store   storage.Store
	slugs   SlugGenerator
	parser  ingestion.Parser
	locker  lock.Locker
	metrics *metrics.Metrics

	totalCheck  bool
	totalMargin money.Money

	now   func() time.Time
	newID func() string
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithSlugGenerator replaces the default generator backed by the store.
func WithSlugGenerator(g SlugGenerator) Option {
	return func(s *ExpenseService) { s.slugs = g }
}

// WithParser enables CreateFromImage.
func WithParser(p ingestion.Parser) Option {
	return func(s *ExpenseService) { s.parser = p }
}

// WithLocker replaces the in-process lock, e.g. with a lock.RedisLocker.
func WithLocker(l lock.Locker) Option {
	return func(s *ExpenseService) { s.locker = l }
}

// WithMetrics records created expenses and claims.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ExpenseService) { s.metrics = m }
}

// WithTotalCheck rejects expenses whose total differs from
// subtotal + tax + service charge - discount by more than margin.
func WithTotalCheck(margin money.Money) Option {
	return func(s *ExpenseService) {
		s.totalCheck = true
		s.totalMargin = margin
	}
}

// WithClock sets the source of createdAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithIDGenerator sets how item and person IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

// NewExpenseService creates a service over store.
func NewExpenseService(store storage.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  store,
		locker: lock.NewKeyedMutex(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.slugs == nil {
		s.slugs = slug.NewGenerator(store)
	}
	return s
}

// CreateParams holds the values of a new expense. Claims on Items are ignored.
type CreateParams struct {
	PayerName      string
	RestaurantName string
	TotalAmount    money.Money
	Subtotal       money.Money
	Tax            *money.Money
	ServiceCharge  *money.Money
	Discount       *money.Money
	Items          []models.Item
	People         []models.Person
}

// UpdateParams replaces the scalar fields of an expense and merges Items by ID.
type UpdateParams struct {
	PayerName      string
	RestaurantName string
	TotalAmount    money.Money
	Subtotal       money.Money
	Tax            *money.Money
	ServiceCharge  *money.Money
	Discount       *money.Money
	Items          []models.Item
}

// Create validates p, assigns a slug and persists a new expense.
// People keep any amounts they were created with until the next recomputation.
func (s *ExpenseService) Create(ctx context.Context, p CreateParams) (*models.Expense, error) {
	return s.create(ctx, p, "manual")
}

func (s *ExpenseService) create(ctx context.Context, p CreateParams, source string) (*models.Expense, error) {
	if err := s.validateCreate(p); err != nil {
		return nil, err
	}

	slug, err := s.slugs.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	expense := &models.Expense{
		ID:             s.newID(),
		Slug:           slug,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
		PayerName:      strings.TrimSpace(p.PayerName),
		RestaurantName: strings.TrimSpace(p.RestaurantName),
		TotalAmount:    p.TotalAmount,
		Subtotal:       p.Subtotal,
		Tax:            p.Tax,
		ServiceCharge:  p.ServiceCharge,
		Discount:       p.Discount,
	}

	for _, item := range p.Items {
		item.ID = s.newID()
		item.Name = strings.TrimSpace(item.Name)
		normalizeQuantity(&item)
		if err := expense.AddItem(item); err != nil {
			return nil, err
		}
	}
	for _, person := range p.People {
		person.ID = s.newID()
		person.Name = strings.TrimSpace(person.Name)
		if err := expense.AddPerson(person); err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.metrics.ExpenseCreated(source)
	slog.Info("Expense created",
		"slug", expense.Slug,
		"source", source,
		"items", len(expense.Items),
		"people", len(expense.People),
		"total", expense.TotalAmount.String(),
	)
	return expense, nil
}

func (s *ExpenseService) validateCreate(p CreateParams) error {
	if strings.TrimSpace(p.PayerName) == "" {
		return models.Validationf("payer name is required")
	}
	if err := validateAmounts(p.TotalAmount, p.Subtotal, p.Tax, p.ServiceCharge, p.Discount); err != nil {
		return err
	}
	if len(p.Items) == 0 {
		return models.Validationf("at least one item is required")
	}
	for i, item := range p.Items {
		if err := validateItem(i, item); err != nil {
			return err
		}
	}
	for i, person := range p.People {
		if strings.TrimSpace(person.Name) == "" {
			return models.Validationf("person %d: name is required", i+1)
		}
	}

	if s.totalCheck {
		expected := p.Subtotal.Add(money.OrZero(p.Tax)).Add(money.OrZero(p.ServiceCharge)).Sub(money.OrZero(p.Discount))
		diff := p.TotalAmount.Sub(expected).Abs()
		if diff.Cmp(s.totalMargin) > 0 {
			return models.Validationf("total amount %s does not match expected %s (difference %s)",
				p.TotalAmount, expected, diff)
		}
	}
	return nil
}

func validateAmounts(total, subtotal money.Money, optional ...*money.Money) error {
	if total.IsNegative() {
		return models.Validationf("total amount must not be negative")
	}
	if subtotal.IsNegative() {
		return models.Validationf("subtotal must not be negative")
	}
	for _, m := range optional {
		if m != nil && m.IsNegative() {
			return models.Validationf("tax, service charge and discount must not be negative")
		}
	}
	return nil
}

func validateItem(i int, item models.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return models.Validationf("item %d: name is required", i+1)
	}
	if !item.Price.IsPositive() {
		return models.Validationf("item %d (%s): price must be positive", i+1, item.Name)
	}
	return nil
}

func normalizeQuantity(item *models.Item) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.TotalQuantity < item.Quantity {
		item.TotalQuantity = item.Quantity
	}
}

// CreateFromImage parses a bill photo and creates an expense from it. Lines with
// quantity N become N items at the unit price. Parser failures wrap ingestion.ErrIngestion.
func (s *ExpenseService) CreateFromImage(ctx context.Context, payerName string, image []byte, mimeType string) (*models.Expense, error) {
	if strings.TrimSpace(payerName) == "" {
		return nil, models.Validationf("payer name is required")
	}
	if len(image) == 0 {
		return nil, models.Validationf("bill image is required")
	}
	if s.parser == nil {
		return nil, fmt.Errorf("%w: no parser configured", ingestion.ErrIngestion)
	}

	bill, err := s.parser.Parse(ctx, image, mimeType)
	if err != nil {
		slog.Error("Bill parsing failed", "error", err)
		if !errors.Is(err, ingestion.ErrIngestion) {
			err = fmt.Errorf("%w: %w", ingestion.ErrIngestion, err)
		}
		return nil, err
	}

	items := bill.UnitItems()
	subtotal := bill.Subtotal
	if subtotal.IsZero() {
		for _, item := range items {
			subtotal = subtotal.Add(item.Price)
		}
	}

	return s.create(ctx, CreateParams{
		PayerName:      payerName,
		RestaurantName: bill.RestaurantName,
		TotalAmount:    bill.TotalAmount,
		Subtotal:       subtotal,
		Tax:            nonZero(bill.Tax),
		ServiceCharge:  nonZero(bill.ServiceCharge),
		Items:          items,
	}, "image")
}

func nonZero(m money.Money) *money.Money {
	if m.IsZero() {
		return nil
	}
	return money.Ptr(m)
}

// GetBySlug returns the expense or an error wrapping models.ErrNotFound.
func (s *ExpenseService) GetBySlug(ctx context.Context, slug string) (*models.Expense, error) {
	return s.store.GetExpenseBySlug(ctx, slug)
}

// UpdateBySlug overwrites the scalar fields and merges items by ID. Items whose ID
// is empty or unknown are appended; existing items are never removed.
func (s *ExpenseService) UpdateBySlug(ctx context.Context, slug string, p UpdateParams) (*models.Expense, error) {
	if strings.TrimSpace(p.PayerName) == "" {
		return nil, models.Validationf("payer name is required")
	}
	if err := validateAmounts(p.TotalAmount, p.Subtotal, p.Tax, p.ServiceCharge, p.Discount); err != nil {
		return nil, err
	}
	for i, item := range p.Items {
		if err := validateItem(i, item); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, slug, func(e *models.Expense) error {
		e.PayerName = strings.TrimSpace(p.PayerName)
		e.RestaurantName = strings.TrimSpace(p.RestaurantName)
		e.TotalAmount = p.TotalAmount
		e.Subtotal = p.Subtotal
		e.Tax = p.Tax
		e.ServiceCharge = p.ServiceCharge
		e.Discount = p.Discount

		items := make([]models.Item, len(p.Items))
		for i, item := range p.Items {
			item.Name = strings.TrimSpace(item.Name)
			normalizeQuantity(&item)
			items[i] = item
		}
		return e.MergeItems(items, s.newID)
	})
}

// ClaimItem adds personID to the item's claimants and recomputes every share.
// Claiming an item twice is a validation error.
func (s *ExpenseService) ClaimItem(ctx context.Context, slug, itemID, personID string) (*models.Expense, error) {
	expense, err := s.mutate(ctx, slug, func(e *models.Expense) error {
		item, err := e.FindItem(itemID)
		if err != nil {
			return err
		}
		if _, err := e.FindPerson(personID); err != nil {
			return err
		}
		if item.IsClaimedBy(personID) {
			return models.Validationf("item %s is already claimed by person %s", itemID, personID)
		}
		return e.Claim(itemID, personID)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ItemClaimed()
	slog.Debug("Item claimed", "slug", slug, "item_id", itemID, "person_id", personID)
	return expense, nil
}

// UnclaimItem removes personID from the item's claimants and recomputes every share.
// Releasing an item that is not claimed by the person is a validation error.
func (s *ExpenseService) UnclaimItem(ctx context.Context, slug, itemID, personID string) (*models.Expense, error) {
	expense, err := s.mutate(ctx, slug, func(e *models.Expense) error {
		item, err := e.FindItem(itemID)
		if err != nil {
			return err
		}
		if _, err := e.FindPerson(personID); err != nil {
			return err
		}
		if !item.IsClaimedBy(personID) {
			return models.Validationf("item %s is not claimed by person %s", itemID, personID)
		}
		return e.Unclaim(itemID, personID)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ItemUnclaimed()
	slog.Debug("Item unclaimed", "slug", slug, "item_id", itemID, "person_id", personID)
	return expense, nil
}

// AddPerson appends a participant with all amounts at zero. Nothing is recomputed.
func (s *ExpenseService) AddPerson(ctx context.Context, slug, name string) (*models.Expense, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validationf("person name is required")
	}
	return s.mutate(ctx, slug, func(e *models.Expense) error {
		return e.AddPerson(models.Person{ID: s.newID(), Name: name})
	})
}

// MarkFinished records that the person is done claiming.
func (s *ExpenseService) MarkFinished(ctx context.Context, slug, personID string) (*models.Expense, error) {
	return s.mutate(ctx, slug, func(e *models.Expense) error {
		return e.SetFinished(personID, true)
	})
}

// MarkPending reopens claiming for the person.
func (s *ExpenseService) MarkPending(ctx context.Context, slug, personID string) (*models.Expense, error) {
	return s.mutate(ctx, slug, func(e *models.Expense) error {
		return e.SetFinished(personID, false)
	})
}

// mutate runs fn on the stored expense under the slug's lock and saves the result.
// Nothing is saved if fn fails.
func (s *ExpenseService) mutate(ctx context.Context, slug string, fn func(*models.Expense) error) (*models.Expense, error) {
	unlock, err := s.locker.Lock(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to lock expense %s: %w", slug, err)
	}
	defer unlock()

	expense, err := s.store.GetExpenseBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := fn(expense); err != nil {
		return nil, err
	}
	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	return expense, nil
}
