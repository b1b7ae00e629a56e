package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/repositories"
	"github.com/maisonverre/concierge/internal/realtime"
)

// The confirmation gate: cart-mutating tool calls never apply until the
// customer explicitly confirms the proposal card. Confirm and Dismiss are
// idempotent no-ops on messages that are not an unresolved proposeCartAdd.
// The assistant learns the outcome through a synthetic user-role turn on the
// control channel, not through the tool result, which was already sent when
// the card was shown.

// Confirm applies the proposed cart mutation exactly once and notifies the
// assistant when a live session is open. On cart failure the proposal is
// re-armed so the customer can retry.
func (o *Orchestrator) Confirm(ctx context.Context, messageID string) error {
	o.mu.Lock()
	msg, resolved := o.transcript.ResolveProposal(messageID)
	if !resolved {
		o.mu.Unlock()
		return nil
	}
	transport := o.transport
	live := o.live
	items := make([]repositories.CartItem, 0, len(msg.Action.CartItems))
	for _, p := range msg.Action.CartItems {
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, repositories.CartItem{
			SKU:       p.SKU,
			ItemName:  p.ItemName,
			Quantity:  qty,
			UnitPrice: p.UnitPrice,
		})
	}
	o.observer.MessageUpdated(msg)
	o.mu.Unlock()

	if err := o.cart.AddItems(ctx, items); err != nil {
		o.logger.Error("Cart mutation failed", zap.String("message_id", messageID), zap.Error(err))
		o.mu.Lock()
		if m := o.transcript.Find(messageID); m != nil && m.Action != nil {
			m.Action.AwaitingConfirmation = true
			o.observer.MessageUpdated(*m)
		}
		o.mu.Unlock()
		return fmt.Errorf("failed to add items to cart: %w", err)
	}

	if live && transport != nil {
		transport.Send(realtime.TextItemEvent("I confirmed adding those items to my cart."))
		transport.Send(realtime.ResponseCreateEvent())
	}
	return nil
}

// Dismiss resolves the proposal without touching the cart and, in a live
// session, tells the assistant the customer declined.
func (o *Orchestrator) Dismiss(messageID string) {
	o.mu.Lock()
	msg, resolved := o.transcript.ResolveProposal(messageID)
	if !resolved {
		o.mu.Unlock()
		return
	}
	transport := o.transport
	live := o.live
	o.observer.MessageUpdated(msg)
	o.mu.Unlock()

	if live && transport != nil {
		transport.Send(realtime.TextItemEvent("I decided not to add those items to my cart."))
		transport.Send(realtime.ResponseCreateEvent())
	}
}
