// Package conversation drives the multi-turn flow that turns "order my usual"
// into a submitted order: pick a wishlist, confirm items, confirm the
// delivery address, submit.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/geo"
	"bigbite-orderbot/internal/intent"
	"bigbite-orderbot/internal/logging"
	"bigbite-orderbot/internal/wishlist"
)

var (
	cancelKeywords         = []string{"cancel", "no", "stop"}
	addressKeywords        = []string{"address", "location"}
	confirmItemsKeywords   = []string{"yes", "confirm", "sure", "ok"}
	confirmAddressKeywords = []string{"yes", "confirm", "sure", "ok", "proceed"}
)

// IntentDetector screens idle messages for order intent.
type IntentDetector interface {
	Detect(ctx context.Context, user domain.User, message string) intent.Detection
}

// OrderSubmitter hands a finished submission to the order API.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, user domain.User, sub domain.OrderSubmission) (*domain.PlacedOrder, error)
}

type Machine struct {
	detector IntentDetector
	orders   OrderSubmitter
	logger   *slog.Logger
}

func NewMachine(detector IntentDetector, orders OrderSubmitter, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Machine{detector: detector, orders: orders, logger: logger}
}

// Dispatch consumes one user message and returns the next session and the
// assistant reply. A nil reply means the message is not part of an ordering
// conversation and should go to general chat.
func (m *Machine) Dispatch(ctx context.Context, sess Session, user domain.User, message string) (Session, *Reply) {
	if !sess.Active() {
		return m.idle(ctx, sess, user, message)
	}

	msg := strings.ToLower(strings.TrimSpace(message))
	if containsAny(msg, cancelKeywords) {
		return sess.Reset(), cancelledReply()
	}
	if containsAny(msg, addressKeywords) {
		return sess, addressHelpReply()
	}

	switch sess.State {
	case ConfirmingItems:
		return m.confirmingItems(sess, user, msg)
	case ConfirmingAddress:
		return m.confirmingAddress(ctx, sess, user, msg)
	default:
		// PlacingOrder never outlives the turn that entered it; a stored
		// session in that state was interrupted.
		m.logger.Warn("conversation: resetting stale session", "user_id", sess.UserID, "state", sess.State)
		return sess.Reset(), cancelledReply()
	}
}

func (m *Machine) idle(ctx context.Context, sess Session, user domain.User, message string) (Session, *Reply) {
	det := m.detector.Detect(ctx, user, message)
	switch det.Kind {
	case intent.LoginRequired:
		return sess, loginRequiredReply()
	case intent.NoWishlists:
		return sess, noWishlistsReply()
	case intent.Order:
		w := wishlist.Resolve(det.Candidate, det.Wishlists)
		if w == nil {
			return sess, noMatchReply(det.Candidate, det.Wishlists)
		}
		next := sess.Reset()
		next.State = ConfirmingItems
		next.SelectedWishlistID = w.ID
		next.Wishlists = det.Wishlists
		return next, itemsSummaryReply(*w)
	default:
		return sess, nil
	}
}

func (m *Machine) confirmingItems(sess Session, user domain.User, msg string) (Session, *Reply) {
	if !containsAny(msg, confirmItemsKeywords) {
		return sess.Reset(), cancelledReply()
	}
	if _, ok := sess.Selected(); !ok {
		return sess.Reset(), orderFailedReply(errors.New("the selected wishlist is no longer available"))
	}
	if user.Address.Coordinates() == nil {
		return sess.Reset(), addressMissingReply()
	}
	sess.State = ConfirmingAddress
	return sess, confirmAddressReply(user.Address)
}

func (m *Machine) confirmingAddress(ctx context.Context, sess Session, user domain.User, msg string) (Session, *Reply) {
	if !containsAny(msg, confirmAddressKeywords) {
		return sess.Reset(), cancelledReply()
	}
	if user.Address.Coordinates() == nil {
		return sess.Reset(), addressMissingReply()
	}

	sess.State = PlacingOrder
	placement, err := m.place(ctx, sess, user)
	if err != nil {
		m.logger.Warn("conversation: order placement failed", "user_id", user.ID, "wishlist_id", sess.SelectedWishlistID, "error", err)
		return sess.Reset(), orderFailedReply(err)
	}
	m.logger.Info("conversation: order placed", "user_id", user.ID, "order_id", placement.Order.ID, "total", placement.Submission.Pricing.TotalAmount)
	return sess.Reset(), orderPlacedReply(placement)
}

func (m *Machine) place(ctx context.Context, sess Session, user domain.User) (*Placement, error) {
	w, ok := sess.Selected()
	if !ok {
		return nil, errors.New("the selected wishlist is no longer available")
	}
	sub, err := BuildSubmission(user, *w)
	if err != nil {
		return nil, err
	}
	order, err := m.orders.SubmitOrder(ctx, user, sub)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ID == "" {
		return nil, errors.New("order service did not return an order id")
	}
	return &Placement{Wishlist: *w, Submission: sub, Order: *order}, nil
}

// BuildSubmission turns a wishlist into an order for user, priced for
// delivery to the user's address.
func BuildSubmission(user domain.User, w domain.Wishlist) (domain.OrderSubmission, error) {
	if user.ID == "" {
		return domain.OrderSubmission{}, errors.New("missing customer id")
	}
	if w.Restaurant.ID == "" {
		return domain.OrderSubmission{}, errors.New("missing restaurant id")
	}
	coords := user.Address.Coordinates()
	if coords == nil {
		return domain.OrderSubmission{}, errors.New("delivery address has no location")
	}
	if len(w.Items) == 0 {
		return domain.OrderSubmission{}, fmt.Errorf("wishlist %q has no items", w.Name)
	}

	lines := make([]domain.OrderLine, 0, len(w.Items))
	for i, it := range w.Items {
		if it.MenuItem.ID == "" {
			return domain.OrderSubmission{}, fmt.Errorf("item %d is missing a menu item id", i+1)
		}
		if it.Quantity <= 0 {
			return domain.OrderSubmission{}, fmt.Errorf("item %q has an invalid quantity", it.MenuItem.Name)
		}
		lines = append(lines, domain.OrderLine{
			MenuItemID: it.MenuItem.ID,
			Name:       it.MenuItem.Name,
			Price:      it.MenuItem.Price,
			Quantity:   it.Quantity,
		})
	}

	return domain.OrderSubmission{
		CustomerID:      user.ID,
		RestaurantID:    w.Restaurant.ID,
		Items:           lines,
		DeliveryAddress: *user.Address,
		PaymentMethod:   domain.PaymentPayOnDelivery,
		Pricing:         geo.QuoteWishlist(w, coords),
	}, nil
}

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
