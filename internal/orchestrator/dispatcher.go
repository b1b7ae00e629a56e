package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

const (
	showProductsLimit    = 6
	compareProductsLimit = 4
)

// ToolResult is what a dispatched invocation writes back onto the control
// channel. Output is always set; Action is set only by UI-action tools, for
// which Output is a short acknowledgement rather than data.
type ToolResult struct {
	Output  string
	Action  *entities.Action
	IsError bool
}

// Dispatcher resolves tool invocations. Data tools fetch from the catalog
// collaborator and return the payload verbatim; UI-action tools construct a
// renderable Action and return an optimistic acknowledgement, since the
// protocol requires a result for every invocation before the conversation
// can continue. A failed fetch degrades to an error payload: a missing
// result would stall the conversation indefinitely.
type Dispatcher struct {
	catalog repositories.Catalog
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher over the fixed tool set.
func NewDispatcher(catalog repositories.Catalog, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{catalog: catalog, logger: logger}
}

// Execute runs one invocation to completion. It never returns nil: unknown
// tools and upstream failures both come back as error-indicating results.
// Safe for concurrent use; overlapping in-flight calls are distinguished by
// the caller's call identifier.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	start := time.Now()
	result := d.execute(ctx, name, args)
	d.logger.Info("Tool executed",
		zap.String("tool", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("error", result.IsError))
	return result
}

func (d *Dispatcher) execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	switch name {
	case "searchCatalog":
		return d.searchCatalog(ctx, args)
	case "getFamilyOverview":
		return d.familyOverview(ctx, args)
	case "checkCompatibility":
		return d.checkCompatibility(ctx, args)
	case "getBottleComponents":
		return d.bottleComponents(ctx, args)
	case "getCatalogStats":
		return d.catalogStats(ctx)
	case "showProducts":
		return d.showProducts(ctx, args, entities.ActionShowProducts, showProductsLimit)
	case "compareProducts":
		return d.showProducts(ctx, args, entities.ActionCompareProducts, compareProductsLimit)
	case "buildKit":
		return d.buildKit(ctx, args)
	case "proposeCartAdd":
		return d.proposeCartAdd(args)
	case "navigateToPage":
		return d.navigateToPage(args)
	case "prefillForm":
		return d.prefillForm(args)
	}
	return errorResult(fmt.Errorf("unknown tool: %s", name))
}

// ── Data tools ──

func (d *Dispatcher) searchCatalog(ctx context.Context, args map[string]any) *ToolResult {
	query := repositories.SearchQuery{
		Term:             stringArg(args, "searchTerm"),
		ApplicatorFilter: stringArg(args, "applicatorFilter"),
		Category:         stringArg(args, "categoryLimit"),
		Family:           stringArg(args, "familyLimit"),
	}
	cards, err := d.catalog.Search(ctx, query)
	if err != nil {
		return errorResult(err)
	}
	if len(cards) == 0 {
		return &ToolResult{Output: "No products found for that search. Try a broader term."}
	}
	return jsonResult(cards)
}

func (d *Dispatcher) familyOverview(ctx context.Context, args map[string]any) *ToolResult {
	family := stringArg(args, "family")
	overview, err := d.catalog.FamilyOverview(ctx, family)
	if err != nil {
		return errorResult(err)
	}
	if overview == nil {
		return &ToolResult{Output: fmt.Sprintf("No products found for the %q family.", family)}
	}
	return jsonResult(overview)
}

func (d *Dispatcher) checkCompatibility(ctx context.Context, args map[string]any) *ToolResult {
	threadSize := stringArg(args, "threadSize")
	fitments, err := d.catalog.Fitments(ctx, threadSize)
	if err != nil {
		return errorResult(err)
	}
	if len(fitments) == 0 {
		return &ToolResult{Output: fmt.Sprintf("No fitment data for thread size %s.", threadSize)}
	}
	return jsonResult(fitments)
}

func (d *Dispatcher) bottleComponents(ctx context.Context, args map[string]any) *ToolResult {
	sku := stringArg(args, "bottleSku")
	components, err := d.catalog.Components(ctx, sku)
	if err != nil {
		return errorResult(err)
	}
	if len(components) == 0 {
		return &ToolResult{Output: fmt.Sprintf("No compatible components found for %s.", sku)}
	}
	return jsonResult(components)
}

func (d *Dispatcher) catalogStats(ctx context.Context) *ToolResult {
	stats, err := d.catalog.Stats(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(stats)
}

// ── UI-action tools ──

func (d *Dispatcher) showProducts(ctx context.Context, args map[string]any, kind entities.ActionType, limit int) *ToolResult {
	cards, err := d.catalog.Search(ctx, repositories.SearchQuery{
		Term:   stringArg(args, "query"),
		Family: stringArg(args, "family"),
		Limit:  limit,
	})
	if err != nil {
		return errorResult(err)
	}
	if len(cards) == 0 {
		return &ToolResult{Output: "No products matched, so nothing was shown. Try a broader query."}
	}
	action := &entities.Action{Type: kind, Products: cards}
	if kind == entities.ActionCompareProducts {
		return &ToolResult{Output: "Comparison shown to customer; awaiting their response.", Action: action}
	}
	return &ToolResult{Output: "Product cards shown to customer; awaiting their response.", Action: action}
}

func (d *Dispatcher) buildKit(ctx context.Context, args map[string]any) *ToolResult {
	sku := stringArg(args, "bottleSku")
	bottle, err := d.catalog.ProductBySKU(ctx, sku)
	if err != nil {
		return errorResult(err)
	}
	if bottle == nil {
		return &ToolResult{Output: fmt.Sprintf("No bottle found with SKU %s.", sku)}
	}
	components, err := d.catalog.Components(ctx, sku)
	if err != nil {
		return errorResult(err)
	}

	kit := []entities.KitItem{{Role: "bottle", Product: *bottle}}
	total := 0.0
	priced := bottle.UnitPrice != nil
	if priced {
		total = *bottle.UnitPrice
	}
	for _, c := range components {
		role := "closure"
		if c.Category != "" {
			role = c.Category
		}
		kit = append(kit, entities.KitItem{Role: role, Product: c})
		if c.UnitPrice != nil {
			total += *c.UnitPrice
		} else {
			priced = false
		}
	}

	action := &entities.Action{Type: entities.ActionBuildKit, KitItems: kit}
	if priced {
		action.TotalPrice = &total
	}
	return &ToolResult{Output: "Kit card shown to customer; awaiting their response.", Action: action}
}

func (d *Dispatcher) proposeCartAdd(args map[string]any) *ToolResult {
	products, _ := args["products"].([]any)
	var items []entities.CartProposalItem
	for _, p := range products {
		fields, ok := p.(map[string]any)
		if !ok {
			continue
		}
		item := entities.CartProposalItem{
			SKU:      stringArg(fields, "sku"),
			ItemName: stringArg(fields, "itemName"),
			Quantity: intArg(fields, "quantity", 1),
		}
		if item.SKU == "" {
			continue
		}
		if price, ok := floatArg(fields, "webPrice1pc"); ok {
			item.UnitPrice = &price
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return errorResult(fmt.Errorf("proposeCartAdd carried no usable products"))
	}
	action := &entities.Action{
		Type:                 entities.ActionProposeCartAdd,
		CartItems:            items,
		AwaitingConfirmation: true,
	}
	return &ToolResult{Output: "Cart proposal shown to customer; awaiting their confirmation.", Action: action}
}

func (d *Dispatcher) navigateToPage(args map[string]any) *ToolResult {
	path := stringArg(args, "path")
	title := stringArg(args, "title")
	if path == "" || title == "" {
		return errorResult(fmt.Errorf("navigateToPage requires path and title"))
	}
	action := &entities.Action{
		Type:         entities.ActionNavigateToPage,
		Path:         path,
		Title:        title,
		Description:  stringArg(args, "description"),
		AutoNavigate: boolArg(args, "autoNavigate"),
	}
	if action.AutoNavigate {
		return &ToolResult{Output: fmt.Sprintf("Customer navigated to %s.", path), Action: action}
	}
	return &ToolResult{Output: "Link card shown to customer.", Action: action}
}

func (d *Dispatcher) prefillForm(args map[string]any) *ToolResult {
	formType := stringArg(args, "formType")
	if formType == "" {
		return errorResult(fmt.Errorf("prefillForm requires formType"))
	}
	fields := map[string]string{}
	if raw, ok := args["fields"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	}
	action := &entities.Action{
		Type:     entities.ActionPrefillForm,
		FormType: formType,
		Fields:   fields,
	}
	return &ToolResult{Output: fmt.Sprintf("Pre-filled the %s form for the customer.", formType), Action: action}
}

// ── Helpers ──

func jsonResult(v any) *ToolResult {
	payload, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return &ToolResult{Output: string(payload)}
}

func errorResult(err error) *ToolResult {
	return &ToolResult{Output: fmt.Sprintf("Tool error: %v", err), IsError: true}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func intArg(args map[string]any, key string, fallback int) int {
	// JSON numbers decode as float64.
	if f, ok := args[key].(float64); ok && f > 0 {
		return int(f)
	}
	return fallback
}

func floatArg(args map[string]any, key string) (float64, bool) {
	f, ok := args[key].(float64)
	return f, ok
}
