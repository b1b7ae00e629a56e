package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/maisonverre/concierge/domain/entities"
)

func TestSearchCatalogReturnsPayloadVerbatim(t *testing.T) {
	price := 1.85
	catalog := &fakeCatalog{cards: []entities.ProductCard{
		{SKU: "MV-1001", ItemName: "30ml Amber Cylinder", UnitPrice: &price},
	}}
	d := NewDispatcher(catalog, nil)

	result := d.Execute(context.Background(), "searchCatalog", map[string]any{"searchTerm": "30ml amber"})
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Output)
	}
	if result.Action != nil {
		t.Error("data tool produced a UI action")
	}

	var cards []entities.ProductCard
	if err := json.Unmarshal([]byte(result.Output), &cards); err != nil {
		t.Fatalf("output is not the serialized payload: %v", err)
	}
	if len(cards) != 1 || cards[0].SKU != "MV-1001" {
		t.Errorf("cards = %#v", cards)
	}
}

func TestSearchCatalogEmptyResultIsFriendlyText(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)
	result := d.Execute(context.Background(), "searchCatalog", map[string]any{"searchTerm": "unobtainium"})
	if result.IsError {
		t.Errorf("empty result treated as error: %s", result.Output)
	}
	if !strings.Contains(result.Output, "No products found") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestFetchFailureDegradesToErrorResult(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("upstream unavailable")}
	d := NewDispatcher(catalog, nil)

	result := d.Execute(context.Background(), "searchCatalog", map[string]any{"searchTerm": "x"})
	if result == nil {
		t.Fatal("Execute returned nil; every invocation must produce a result")
	}
	if !result.IsError {
		t.Error("failed fetch not marked as error")
	}
	if !strings.Contains(result.Output, "upstream unavailable") {
		t.Errorf("Output = %q, want the failure embedded", result.Output)
	}
}

func TestUnknownToolIsAnswered(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)
	result := d.Execute(context.Background(), "launchMissiles", nil)
	if result == nil || !result.IsError {
		t.Fatalf("unknown tool must yield an error result, got %#v", result)
	}
	if !strings.Contains(result.Output, "unknown tool") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestShowProductsBuildsAction(t *testing.T) {
	catalog := &fakeCatalog{cards: []entities.ProductCard{{SKU: "MV-1001", ItemName: "30ml Amber Cylinder"}}}
	d := NewDispatcher(catalog, nil)

	result := d.Execute(context.Background(), "showProducts", map[string]any{"query": "30ml amber"})
	if result.Action == nil || result.Action.Type != entities.ActionShowProducts {
		t.Fatalf("Action = %#v, want showProducts", result.Action)
	}
	if len(result.Action.Products) != 1 {
		t.Errorf("Products = %#v", result.Action.Products)
	}
	if !strings.Contains(result.Output, "awaiting their response") {
		t.Errorf("ack = %q, want optimistic acknowledgement", result.Output)
	}
}

func TestProposeCartAddAwaitsConfirmation(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)
	result := d.Execute(context.Background(), "proposeCartAdd", map[string]any{
		"products": []any{
			map[string]any{"itemName": "30ml Amber Cylinder", "sku": "MV-1001", "quantity": float64(12), "webPrice1pc": 1.85},
		},
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Output)
	}
	action := result.Action
	if action == nil || action.Type != entities.ActionProposeCartAdd {
		t.Fatalf("Action = %#v", action)
	}
	if !action.AwaitingConfirmation {
		t.Error("proposal not awaiting confirmation")
	}
	if len(action.CartItems) != 1 || action.CartItems[0].Quantity != 12 {
		t.Errorf("CartItems = %#v", action.CartItems)
	}
	if action.CartItems[0].UnitPrice == nil || *action.CartItems[0].UnitPrice != 1.85 {
		t.Errorf("UnitPrice = %v", action.CartItems[0].UnitPrice)
	}
}

func TestProposeCartAddWithoutProductsIsError(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)
	result := d.Execute(context.Background(), "proposeCartAdd", map[string]any{"products": []any{}})
	if !result.IsError {
		t.Error("empty proposal not rejected")
	}
}

func TestNavigateToPageAcknowledgesAutoNavigation(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)

	result := d.Execute(context.Background(), "navigateToPage", map[string]any{
		"path": "/catalog", "title": "Catalog", "autoNavigate": true,
	})
	if result.Action == nil || !result.Action.AutoNavigate {
		t.Fatalf("Action = %#v", result.Action)
	}
	if !strings.Contains(result.Output, "navigated") {
		t.Errorf("ack = %q", result.Output)
	}

	result = d.Execute(context.Background(), "navigateToPage", map[string]any{
		"path": "/contact", "title": "Contact",
	})
	if result.Action == nil || result.Action.AutoNavigate {
		t.Fatalf("Action = %#v, want card without auto navigation", result.Action)
	}
}

func TestPrefillFormCollectsStringFields(t *testing.T) {
	d := NewDispatcher(&fakeCatalog{}, nil)
	result := d.Execute(context.Background(), "prefillForm", map[string]any{
		"formType": "quote",
		"fields":   map[string]any{"name": "Ada", "email": "ada@example.com", "count": float64(3)},
	})
	action := result.Action
	if action == nil || action.Type != entities.ActionPrefillForm || action.FormType != "quote" {
		t.Fatalf("Action = %#v", action)
	}
	if action.Fields["name"] != "Ada" || action.Fields["email"] != "ada@example.com" {
		t.Errorf("Fields = %#v", action.Fields)
	}
	if _, ok := action.Fields["count"]; ok {
		t.Error("non-string field was not dropped")
	}
}
