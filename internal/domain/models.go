package domain

import (
	"strings"
	"time"
)

// ============================================================
// Transactions — persisted entity and enumerations
// ============================================================

// TransactionType is the direction of money movement.
type TransactionType string

const (
	TypeIncome   TransactionType = "INCOME"
	TypeExpense  TransactionType = "EXPENSE"
	TypeTransfer TransactionType = "TRANSFER"
)

// TransactionTypes lists every accepted transaction type.
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense, TypeTransfer}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	for _, v := range TransactionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Category is the fixed spending/income classification.
type Category string

const (
	CategoryIncome        Category = "INCOME"
	CategoryFood          Category = "FOOD"
	CategoryGrocery       Category = "GROCERY"
	CategoryTransport     Category = "TRANSPORT"
	CategoryGas           Category = "GAS"
	CategorySubscription  Category = "SUBSCRIPTION"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryElectronics   Category = "ELECTRONICS"
	CategoryShopping      Category = "SHOPPING"
	CategoryHealth        Category = "HEALTH"
	CategoryUtilities     Category = "UTILITIES"
	CategoryRent          Category = "RENT"
	CategoryTravel        Category = "TRAVEL"
	CategoryOther         Category = "OTHER"
)

// Categories lists the category enumeration in display order.
var Categories = []Category{
	CategoryIncome, CategoryFood, CategoryGrocery, CategoryTransport, CategoryGas,
	CategorySubscription, CategoryEntertainment, CategoryElectronics, CategoryShopping,
	CategoryHealth, CategoryUtilities, CategoryRent, CategoryTravel, CategoryOther,
}

// Valid reports whether c is part of the enumeration.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// NormalizeCategory maps free text onto the enumeration. Unknown labels become OTHER.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Transaction is a stored transaction owned by exactly one user.
// Amount is always a positive magnitude; Type carries the direction.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Merchant    *string         `json:"merchant,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionRequest is the body for POST /api/transactions and PUT /api/transactions/{id}.
type TransactionRequest struct {
	Type        string   `json:"type"`
	Amount      *float64 `json:"amount"`
	Currency    string   `json:"currency"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description"`
	Merchant    *string  `json:"merchant,omitempty"`
	OccurredAt  string   `json:"occurredAt,omitempty"`
}

// NewTransaction is a validated, fully-typed record ready for the store.
type NewTransaction struct {
	Type        TransactionType
	Amount      float64
	Currency    string
	Category    Category
	Description string
	Merchant    *string
	OccurredAt  time.Time
}
