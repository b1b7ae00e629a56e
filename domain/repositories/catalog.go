package repositories

import (
	"context"

	"github.com/maisonverre/concierge/domain/entities"
)

// SearchQuery narrows a keyword catalog search.
type SearchQuery struct {
	Term             string
	ApplicatorFilter string // comma-separated applicator types, e.g. "Metal Roller,Plastic Roller"
	Category         string // "Glass Bottle" | "Component" | "Aluminum Bottle" | "Specialty"
	Family           string
	Limit            int
}

// FamilyOverview aggregates everything a bottle family offers.
type FamilyOverview struct {
	Family       string   `json:"family"`
	ProductCount int      `json:"product_count"`
	Capacities   []string `json:"capacities"`
	Colors       []string `json:"colors"`
	ThreadSizes  []string `json:"thread_sizes"`
	Applicators  []string `json:"applicators"`
	PriceMin     float64  `json:"price_min"`
	PriceMax     float64  `json:"price_max"`
}

// Fitment lists the closures compatible with a neck thread size.
type Fitment struct {
	ThreadSize   string   `json:"thread_size"`
	ClosureName  string   `json:"closure_name"`
	ClosureType  string   `json:"closure_type"`
	Families     []string `json:"families,omitempty"`
	ComponentSKU string   `json:"component_sku,omitempty"`
}

// CatalogStats summarizes the catalog by family and category.
type CatalogStats struct {
	TotalProducts int            `json:"total_products"`
	ByFamily      map[string]int `json:"by_family"`
	ByCategory    map[string]int `json:"by_category"`
}

// Catalog is the product-catalog collaborator consumed by data tools. Each
// operation returns data that serializes directly into a tool result.
type Catalog interface {
	Search(ctx context.Context, query SearchQuery) ([]entities.ProductCard, error)
	ProductBySKU(ctx context.Context, sku string) (*entities.ProductCard, error)
	FamilyOverview(ctx context.Context, family string) (*FamilyOverview, error)
	Fitments(ctx context.Context, threadSize string) ([]Fitment, error)
	Components(ctx context.Context, bottleSKU string) ([]entities.ProductCard, error)
	Stats(ctx context.Context) (*CatalogStats, error)
}
