package service

import (
	"strings"
	"time"

	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
	"github.com/mmynk/forkthebill/pkg/api"
)

// ToAPIExpense converts an expense to its read view.
func ToAPIExpense(e *models.Expense) *api.Expense {
	out := &api.Expense{
		ID:             e.ID,
		Slug:           e.Slug,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		PayerName:      e.PayerName,
		RestaurantName: e.RestaurantName,
		Subtotal:       e.Subtotal.String(),
		Tax:            optionalString(e.Tax),
		ServiceCharge:  optionalString(e.ServiceCharge),
		Discount:       optionalString(e.Discount),
		TotalAmount:    e.TotalAmount.String(),
		Items:          make([]api.Item, len(e.Items)),
		People:         make([]api.Person, len(e.People)),
	}

	for i, item := range e.Items {
		out.Items[i] = api.Item{
			ID:            item.ID,
			Name:          item.Name,
			Price:         item.Price.String(),
			Quantity:      item.Quantity,
			TotalQuantity: item.TotalQuantity,
			ClaimedBy:     append([]string(nil), item.ClaimedBy...),
		}
	}
	for i, p := range e.People {
		out.People[i] = api.Person{
			ID:                 p.ID,
			Name:               p.Name,
			Subtotal:           p.Subtotal.String(),
			TaxShare:           p.TaxShare.String(),
			ServiceChargeShare: p.ServiceChargeShare.String(),
			DiscountShare:      p.DiscountShare.String(),
			TotalOwed:          p.TotalOwed.String(),
			Finished:           p.Finished,
			ItemsClaimed:       e.ItemsClaimed(p.ID),
		}
	}
	return out
}

func optionalString(m *money.Money) string {
	if m == nil {
		return ""
	}
	return m.String()
}

// CreateParamsFromAPI parses the amounts of req. Malformed amounts are validation errors.
func CreateParamsFromAPI(req *api.CreateExpenseRequest) (CreateParams, error) {
	var (
		p   CreateParams
		err error
	)
	p.PayerName = req.PayerName
	p.RestaurantName = req.RestaurantName
	if p.TotalAmount, err = parseRequired("totalAmount", req.TotalAmount); err != nil {
		return p, err
	}
	if p.Subtotal, err = parseRequired("subtotal", req.Subtotal); err != nil {
		return p, err
	}
	if p.Tax, err = parseOptional("tax", req.Tax); err != nil {
		return p, err
	}
	if p.ServiceCharge, err = parseOptional("serviceCharge", req.ServiceCharge); err != nil {
		return p, err
	}
	if p.Discount, err = parseOptional("discount", req.Discount); err != nil {
		return p, err
	}
	if p.Items, err = itemsFromAPI(req.Items); err != nil {
		return p, err
	}

	for _, person := range req.People {
		mp := models.Person{Name: person.Name, Finished: person.Finished}
		for _, f := range []struct {
			name string
			in   string
			out  *money.Money
		}{
			{"subtotal", person.Subtotal, &mp.Subtotal},
			{"taxShare", person.TaxShare, &mp.TaxShare},
			{"serviceChargeShare", person.ServiceChargeShare, &mp.ServiceChargeShare},
			{"discountShare", person.DiscountShare, &mp.DiscountShare},
			{"totalOwed", person.TotalOwed, &mp.TotalOwed},
		} {
			v, err := parseOptional(f.name, f.in)
			if err != nil {
				return p, err
			}
			*f.out = money.OrZero(v)
		}
		p.People = append(p.People, mp)
	}
	return p, nil
}

// UpdateParamsFromAPI parses the amounts of req.
func UpdateParamsFromAPI(req *api.UpdateExpenseRequest) (UpdateParams, error) {
	var (
		p   UpdateParams
		err error
	)
	p.PayerName = req.PayerName
	p.RestaurantName = req.RestaurantName
	if p.TotalAmount, err = parseRequired("totalAmount", req.TotalAmount); err != nil {
		return p, err
	}
	if p.Subtotal, err = parseRequired("subtotal", req.Subtotal); err != nil {
		return p, err
	}
	if p.Tax, err = parseOptional("tax", req.Tax); err != nil {
		return p, err
	}
	if p.ServiceCharge, err = parseOptional("serviceCharge", req.ServiceCharge); err != nil {
		return p, err
	}
	if p.Discount, err = parseOptional("discount", req.Discount); err != nil {
		return p, err
	}
	if p.Items, err = itemsFromAPI(req.Items); err != nil {
		return p, err
	}
	return p, nil
}

func itemsFromAPI(in []api.Item) ([]models.Item, error) {
	items := make([]models.Item, 0, len(in))
	for _, item := range in {
		price, err := parseRequired("price of "+item.Name, item.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, models.Item{
			ID:            item.ID,
			Name:          item.Name,
			Price:         price,
			Quantity:      item.Quantity,
			TotalQuantity: item.TotalQuantity,
		})
	}
	return items, nil
}

func parseRequired(field, s string) (money.Money, error) {
	if strings.TrimSpace(s) == "" {
		return money.Money{}, models.Validationf("%s is required", field)
	}
	m, err := money.Parse(s)
	if err != nil {
		return money.Money{}, models.Validationf("invalid %s %q", field, s)
	}
	return m, nil
}

func parseOptional(field, s string) (*money.Money, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := money.Parse(s)
	if err != nil {
		return nil, models.Validationf("invalid %s %q", field, s)
	}
	return &m, nil
}
