package repositories

import "context"

// CartItem is one priced line in the customer's cart.
type CartItem struct {
	SKU       string   `json:"sku"`
	ItemName  string   `json:"item_name"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Family    string   `json:"family,omitempty"`
	Capacity  string   `json:"capacity,omitempty"`
	Color     string   `json:"color,omitempty"`
}

// CheckoutResult is the outcome of resolving local cart lines against the
// commerce backend. UnmatchedSKUs lists lines the store could not match;
// CheckoutURL is empty when nothing matched.
type CheckoutResult struct {
	CheckoutURL   string   `json:"checkout_url,omitempty"`
	UnmatchedSKUs []string `json:"unmatched_skus,omitempty"`
}

// Cart is the shared mutable cart collaborator. Within the orchestrator
// subsystem only the confirmation gate may call AddItems.
type Cart interface {
	// AddItems merges lines into the cart: an existing SKU has its quantity
	// increased, a new SKU is appended.
	AddItems(ctx context.Context, items []CartItem) error
	Remove(ctx context.Context, sku string) error
	Items(ctx context.Context) ([]CartItem, error)
	Checkout(ctx context.Context) (*CheckoutResult, error)
}
