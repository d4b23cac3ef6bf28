package conversation

import (
	"fmt"
	"strings"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/wishlist"
)

// ReplyKind tags what an assistant reply is about so clients can render it.
type ReplyKind string

const (
	KindCancelled      ReplyKind = "cancelled"
	KindAddressHelp    ReplyKind = "address_help"
	KindAddressMissing ReplyKind = "address_missing"
	KindItemsSummary   ReplyKind = "items_summary"
	KindConfirmAddress ReplyKind = "confirm_address"
	KindOrderPlaced    ReplyKind = "order_placed"
	KindOrderFailed    ReplyKind = "order_failed"
	KindNoMatch        ReplyKind = "no_match"
	KindLoginRequired  ReplyKind = "login_required"
	KindNoWishlists    ReplyKind = "no_wishlists"
)

// Placement describes an order that was accepted during the turn.
type Placement struct {
	Wishlist   domain.Wishlist
	Submission domain.OrderSubmission
	Order      domain.PlacedOrder
}

type Reply struct {
	Kind      ReplyKind
	Text      string
	Placement *Placement
}

const currency = "₹"

func money(v float64) string {
	return fmt.Sprintf("%s%.2f", currency, v)
}

func cancelledReply() *Reply {
	return &Reply{
		Kind: KindCancelled,
		Text: "Okay, I've cancelled that order. Let me know if there's anything else I can help with.",
	}
}

func addressHelpReply() *Reply {
	return &Reply{
		Kind: KindAddressHelp,
		Text: "You can change your delivery address from your profile page. Once it's saved, come back here and reply to continue your order.",
	}
}

func addressMissingReply() *Reply {
	return &Reply{
		Kind: KindAddressMissing,
		Text: "Your delivery address doesn't have a map location yet. Please set your address with a location on your profile, then ask me to order again.",
	}
}

func loginRequiredReply() *Reply {
	return &Reply{
		Kind: KindLoginRequired,
		Text: "Please log in to place an order from your wishlists.",
	}
}

func noWishlistsReply() *Reply {
	return &Reply{
		Kind: KindNoWishlists,
		Text: "You don't have any wishlists yet. Add items to a wishlist first, then ask me to order it.",
	}
}

func noMatchReply(candidate string, wishlists []domain.Wishlist) *Reply {
	names := make([]string, 0, len(wishlists))
	for _, n := range wishlist.Names(wishlists) {
		names = append(names, fmt.Sprintf("%q", n))
	}
	var b strings.Builder
	if candidate != "" {
		fmt.Fprintf(&b, "I couldn't find a wishlist called %q. ", candidate)
	}
	fmt.Fprintf(&b, "Your wishlists are: %s. Which one would you like to order?", strings.Join(names, ", "))
	return &Reply{Kind: KindNoMatch, Text: b.String()}
}

func itemsSummaryReply(w domain.Wishlist) *Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your %q wishlist", w.Name)
	if w.Restaurant.Name != "" {
		fmt.Fprintf(&b, " from %s", w.Restaurant.Name)
	}
	b.WriteString(":\n")
	for _, it := range w.Items {
		fmt.Fprintf(&b, "• %d × %s - %s\n", it.Quantity, it.MenuItem.Name, money(it.MenuItem.Price*float64(it.Quantity)))
	}
	fmt.Fprintf(&b, "Items: %d, item total: %s\n", w.ItemCount(), money(w.Subtotal()))
	b.WriteString("Shall I go ahead with these items? (yes/no)")
	return &Reply{Kind: KindItemsSummary, Text: b.String()}
}

func confirmAddressReply(addr *domain.Address) *Reply {
	text := fmt.Sprintf(
		"Delivering to: %s\nPayment: %s\nShould I place the order now? (yes/no)",
		addr.String(), domain.PaymentPayOnDelivery,
	)
	return &Reply{Kind: KindConfirmAddress, Text: text}
}

func orderPlacedReply(p *Placement) *Reply {
	pr := p.Submission.Pricing
	var b strings.Builder
	fmt.Fprintf(&b, "Your order has been placed! Order ID: %s\n", p.Order.ID)
	fmt.Fprintf(&b, "Subtotal: %s\n", money(pr.Subtotal))
	fmt.Fprintf(&b, "Delivery fee: %s\n", money(pr.DeliveryFee))
	fmt.Fprintf(&b, "Platform fee: %s\n", money(pr.PlatformFee))
	fmt.Fprintf(&b, "GST: %s\n", money(pr.GST))
	fmt.Fprintf(&b, "Total: %s\n", money(pr.TotalAmount))
	fmt.Fprintf(&b, "Payment: %s", domain.PaymentPayOnDelivery)
	return &Reply{Kind: KindOrderPlaced, Text: b.String(), Placement: p}
}

func orderFailedReply(err error) *Reply {
	return &Reply{
		Kind: KindOrderFailed,
		Text: fmt.Sprintf("Sorry, I couldn't place your order: %s", err.Error()),
	}
}
