package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

// Product is one in-memory catalog entry.
type Product struct {
	Card           entities.ProductCard
	ApplicatorType string
}

// MemoryCatalog is an in-memory repositories.Catalog for development and
// tests. Read-only after construction; safe for concurrent use.
type MemoryCatalog struct {
	products []Product
	fitments []repositories.Fitment
}

// NewMemoryCatalog creates a catalog over the given products and fitments.
func NewMemoryCatalog(products []Product, fitments []repositories.Fitment) *MemoryCatalog {
	return &MemoryCatalog{products: products, fitments: fitments}
}

// Search implements repositories.Catalog. All keyword terms must match the
// item name, case-insensitively.
func (c *MemoryCatalog) Search(ctx context.Context, query repositories.SearchQuery) ([]entities.ProductCard, error) {
	terms := strings.Fields(strings.ToLower(query.Term))

	var applicators []string
	for _, a := range strings.Split(query.ApplicatorFilter, ",") {
		if a = strings.TrimSpace(a); a != "" {
			applicators = append(applicators, a)
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var cards []entities.ProductCard
	for _, p := range c.products {
		if query.Category != "" && p.Card.Category != query.Category {
			continue
		}
		if query.Family != "" && p.Card.Family != query.Family {
			continue
		}
		if len(applicators) > 0 && !contains(applicators, p.ApplicatorType) {
			continue
		}
		name := strings.ToLower(p.Card.ItemName)
		matched := true
		for _, term := range terms {
			if !strings.Contains(name, term) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		cards = append(cards, p.Card)
		if len(cards) >= limit {
			break
		}
	}
	return cards, nil
}

// ProductBySKU implements repositories.Catalog.
func (c *MemoryCatalog) ProductBySKU(ctx context.Context, sku string) (*entities.ProductCard, error) {
	for i := range c.products {
		if c.products[i].Card.SKU == sku {
			card := c.products[i].Card
			return &card, nil
		}
	}
	return nil, nil
}

// FamilyOverview implements repositories.Catalog.
func (c *MemoryCatalog) FamilyOverview(ctx context.Context, family string) (*repositories.FamilyOverview, error) {
	overview := &repositories.FamilyOverview{Family: family}
	capacities := map[string]bool{}
	colors := map[string]bool{}
	threads := map[string]bool{}
	applicators := map[string]bool{}

	for _, p := range c.products {
		if p.Card.Family != family {
			continue
		}
		overview.ProductCount++
		if p.Card.Capacity != "" {
			capacities[p.Card.Capacity] = true
		}
		if p.Card.Color != "" {
			colors[p.Card.Color] = true
		}
		if p.Card.NeckThreadSize != "" {
			threads[p.Card.NeckThreadSize] = true
		}
		if p.ApplicatorType != "" {
			applicators[p.ApplicatorType] = true
		}
		if p.Card.UnitPrice != nil {
			price := *p.Card.UnitPrice
			if overview.PriceMin == 0 || price < overview.PriceMin {
				overview.PriceMin = price
			}
			if price > overview.PriceMax {
				overview.PriceMax = price
			}
		}
	}
	if overview.ProductCount == 0 {
		return nil, nil
	}

	overview.Capacities = sortedKeys(capacities)
	overview.Colors = sortedKeys(colors)
	overview.ThreadSizes = sortedKeys(threads)
	overview.Applicators = sortedKeys(applicators)
	return overview, nil
}

// Fitments implements repositories.Catalog.
func (c *MemoryCatalog) Fitments(ctx context.Context, threadSize string) ([]repositories.Fitment, error) {
	var out []repositories.Fitment
	for _, f := range c.fitments {
		if f.ThreadSize == threadSize {
			out = append(out, f)
		}
	}
	return out, nil
}

// Components implements repositories.Catalog.
func (c *MemoryCatalog) Components(ctx context.Context, bottleSKU string) ([]entities.ProductCard, error) {
	bottle, err := c.ProductBySKU(ctx, bottleSKU)
	if err != nil || bottle == nil || bottle.NeckThreadSize == "" {
		return nil, err
	}

	var cards []entities.ProductCard
	for _, p := range c.products {
		if p.Card.Category == "Component" && p.Card.NeckThreadSize == bottle.NeckThreadSize {
			cards = append(cards, p.Card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].SKU < cards[j].SKU })
	return cards, nil
}

// Stats implements repositories.Catalog.
func (c *MemoryCatalog) Stats(ctx context.Context) (*repositories.CatalogStats, error) {
	stats := &repositories.CatalogStats{
		TotalProducts: len(c.products),
		ByFamily:      map[string]int{},
		ByCategory:    map[string]int{},
	}
	for _, p := range c.products {
		if p.Card.Family != "" {
			stats.ByFamily[p.Card.Family]++
		}
		if p.Card.Category != "" {
			stats.ByCategory[p.Card.Category]++
		}
	}
	return stats, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
