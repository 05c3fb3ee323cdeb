// Package api defines the messages exchanged with the ExpenseService.
// Amounts are decimal strings with two fractional digits, e.g. "12.50".
// An empty optional amount (tax, service charge, discount) means absent.
package api

// Item is one claimable line of an expense.
type Item struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	Quantity      int      `json:"quantity,omitempty"`
	TotalQuantity int      `json:"totalQuantity,omitempty"`
	ClaimedBy     []string `json:"claimedBy,omitempty"`
}

// Person is a participant and what they owe.
type Person struct {
	ID                 string   `json:"id,omitempty"`
	Name               string   `json:"name"`
	Subtotal           string   `json:"subtotal,omitempty"`
	TaxShare           string   `json:"taxShare,omitempty"`
	ServiceChargeShare string   `json:"serviceChargeShare,omitempty"`
	DiscountShare      string   `json:"discountShare,omitempty"`
	TotalOwed          string   `json:"totalOwed,omitempty"`
	Finished           bool     `json:"finished"`
	ItemsClaimed       []string `json:"itemsClaimed,omitempty"`
}

// Expense is the read view of an expense.
type Expense struct {
	ID             string   `json:"id"`
	Slug           string   `json:"slug"`
	CreatedAt      string   `json:"createdAt"`
	PayerName      string   `json:"payerName"`
	RestaurantName string   `json:"restaurantName,omitempty"`
	Subtotal       string   `json:"subtotal"`
	Tax            string   `json:"tax,omitempty"`
	ServiceCharge  string   `json:"serviceCharge,omitempty"`
	Discount       string   `json:"discount,omitempty"`
	TotalAmount    string   `json:"totalAmount"`
	Items          []Item   `json:"items"`
	People         []Person `json:"people"`
}

// CreateExpenseRequest creates an expense from manually entered values.
// Claims on items are ignored; people may carry seed amounts.
type CreateExpenseRequest struct {
	PayerName      string   `json:"payerName"`
	RestaurantName string   `json:"restaurantName,omitempty"`
	TotalAmount    string   `json:"totalAmount"`
	Subtotal       string   `json:"subtotal"`
	Tax            string   `json:"tax,omitempty"`
	ServiceCharge  string   `json:"serviceCharge,omitempty"`
	Discount       string   `json:"discount,omitempty"`
	Items          []Item   `json:"items"`
	People         []Person `json:"people,omitempty"`
}

// CreateExpenseFromImageRequest creates an expense from a photo of the bill.
// Image is base64 in JSON.
type CreateExpenseFromImageRequest struct {
	PayerName string `json:"payerName"`
	Image     []byte `json:"image"`
	MimeType  string `json:"mimeType,omitempty"`
}

// GetExpenseRequest looks up an expense by slug.
type GetExpenseRequest struct {
	Slug string `json:"slug"`
}

// UpdateExpenseRequest overwrites the scalar fields and merges Items by id.
type UpdateExpenseRequest struct {
	Slug           string `json:"slug"`
	PayerName      string `json:"payerName"`
	RestaurantName string `json:"restaurantName,omitempty"`
	TotalAmount    string `json:"totalAmount"`
	Subtotal       string `json:"subtotal"`
	Tax            string `json:"tax,omitempty"`
	ServiceCharge  string `json:"serviceCharge,omitempty"`
	Discount       string `json:"discount,omitempty"`
	Items          []Item `json:"items,omitempty"`
}

// ClaimRequest names an item and the person claiming or releasing it.
type ClaimRequest struct {
	Slug     string `json:"slug"`
	ItemID   string `json:"itemId"`
	PersonID string `json:"personId"`
}

// AddPersonRequest adds a participant by name.
type AddPersonRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PersonStatusRequest marks a person finished or pending.
type PersonStatusRequest struct {
	Slug     string `json:"slug"`
	PersonID string `json:"personId"`
}

// ExpenseResponse carries the expense after any operation.
type ExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// GetSlug getters are nil-safe, like generated message getters.

func (r *GetExpenseRequest) GetSlug() string {
	if r == nil {
		return ""
	}
	return r.Slug
}

func (r *UpdateExpenseRequest) GetSlug() string {
	if r == nil {
		return ""
	}
	return r.Slug
}

func (r *ClaimRequest) GetSlug() string {
	if r == nil {
		return ""
	}
	return r.Slug
}

func (r *AddPersonRequest) GetSlug() string {
	if r == nil {
		return ""
	}
	return r.Slug
}

func (r *PersonStatusRequest) GetSlug() string {
	if r == nil {
		return ""
	}
	return r.Slug
}

func (r *ExpenseResponse) GetSlug() string {
	if r == nil || r.Expense == nil {
		return ""
	}
	return r.Expense.Slug
}
