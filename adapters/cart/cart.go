// Package cart implements the shared cart collaborator. Cart state lives in
// memory for the lifetime of the client session; checkout resolves the lines
// against the external commerce backend.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/repositories"
)

// MemoryCart implements repositories.Cart. Safe for concurrent use.
type MemoryCart struct {
	resolveURL string
	client     *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	items []repositories.CartItem
}

// New creates an empty cart. resolveURL may be empty, in which case Checkout
// fails with a configuration error.
func New(resolveURL string, logger *zap.Logger) *MemoryCart {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCart{
		resolveURL: resolveURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// AddItems implements add-or-merge: an existing SKU has its quantity
// increased, a new SKU is appended.
func (c *MemoryCart) AddItems(ctx context.Context, items []repositories.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range items {
		if item.SKU == "" {
			return fmt.Errorf("cart line without SKU")
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		merged := false
		for i := range c.items {
			if c.items[i].SKU == item.SKU {
				c.items[i].Quantity += qty
				merged = true
				break
			}
		}
		if !merged {
			item.Quantity = qty
			c.items = append(c.items, item)
		}
	}

	c.logger.Info("Cart updated", zap.Int("lines", len(c.items)))
	return nil
}

// Remove drops the line with the given SKU. Unknown SKUs are a no-op.
func (c *MemoryCart) Remove(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].SKU == sku {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Items returns a copy of the cart lines.
func (c *MemoryCart) Items(ctx context.Context) ([]repositories.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]repositories.CartItem, len(c.items))
	copy(out, c.items)
	return out, nil
}

type resolveRequest struct {
	Items []resolveLine `json:"items"`
}

type resolveLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type resolveResponse struct {
	CheckoutURL   string   `json:"checkoutUrl"`
	UnmatchedSKUs []string `json:"unmatchedSkus"`
}

// Checkout resolves the local lines against the commerce backend. Lines the
// store cannot match come back in UnmatchedSKUs; the checkout URL covers the
// rest.
func (c *MemoryCart) Checkout(ctx context.Context) (*repositories.CheckoutResult, error) {
	if c.resolveURL == "" {
		return nil, fmt.Errorf("commerce resolve endpoint not configured")
	}

	c.mu.Lock()
	lines := make([]resolveLine, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, resolveLine{SKU: item.SKU, Quantity: item.Quantity})
	}
	c.mu.Unlock()

	if len(lines) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	body, err := json.Marshal(resolveRequest{Items: lines})
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Checkout rejected", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("commerce backend status %d", resp.StatusCode)
	}

	var rr resolveResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, fmt.Errorf("malformed checkout response: %w", err)
	}

	return &repositories.CheckoutResult{
		CheckoutURL:   rr.CheckoutURL,
		UnmatchedSKUs: rr.UnmatchedSKUs,
	}, nil
}
