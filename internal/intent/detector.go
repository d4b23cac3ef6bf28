// Package intent decides whether a chat message asks to place an order and,
// if so, which wishlist it names.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/logging"
)

var orderingKeywords = []string{
	"order",
	"buy",
	"purchase",
	"get me",
	"i want",
	"deliver",
	"place",
}

// HasOrderingKeyword is the cheap local gate in front of classification.
func HasOrderingKeyword(message string) bool {
	m := strings.ToLower(message)
	for _, k := range orderingKeywords {
		if strings.Contains(m, k) {
			return true
		}
	}
	return false
}

// Classification is the external classifier's verdict on a message.
type Classification struct {
	WantsToOrder bool
	WishlistName *string
}

// Classifier is the remote text-classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, user domain.User, message string) (Classification, error)
}

// WishlistSource lists the saved wishlists of a user.
type WishlistSource interface {
	ListWishlists(ctx context.Context, user domain.User) ([]domain.Wishlist, error)
}

type Kind int

const (
	// None means the message should be handled as ordinary chat.
	None Kind = iota
	// LoginRequired short-circuits guests before any remote call.
	LoginRequired
	// NoWishlists short-circuits users with nothing saved.
	NoWishlists
	// Order carries a candidate name and the wishlist snapshot it applies to.
	Order
)

func (k Kind) String() string {
	switch k {
	case LoginRequired:
		return "login_required"
	case NoWishlists:
		return "no_wishlists"
	case Order:
		return "order"
	default:
		return "none"
	}
}

// Detection is the result of Detect. Candidate may be empty when the
// classifier saw an order request without a wishlist name.
type Detection struct {
	Kind      Kind
	Candidate string
	Wishlists []domain.Wishlist
}

type Detector struct {
	classifier Classifier
	wishlists  WishlistSource
	logger     *slog.Logger
}

func NewDetector(classifier Classifier, wishlists WishlistSource, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{classifier: classifier, wishlists: wishlists, logger: logger}
}

// Detect screens a message for order intent. Remote failures are logged and
// reported as None so the caller falls back to ordinary chat.
func (d *Detector) Detect(ctx context.Context, user domain.User, message string) Detection {
	if !HasOrderingKeyword(message) {
		return Detection{Kind: None}
	}
	if !user.Authenticated {
		return Detection{Kind: LoginRequired}
	}

	wishlists, err := d.wishlists.ListWishlists(ctx, user)
	if err != nil {
		d.logger.Warn("intent: list wishlists failed", "user_id", user.ID, "error", err)
		return Detection{Kind: None}
	}
	if len(wishlists) == 0 {
		return Detection{Kind: NoWishlists}
	}

	cls, err := d.classifier.Classify(ctx, user, message)
	if err != nil {
		d.logger.Warn("intent: classification failed", "user_id", user.ID, "error", err)
		return Detection{Kind: None}
	}
	if !cls.WantsToOrder {
		return Detection{Kind: None}
	}

	det := Detection{Kind: Order, Wishlists: wishlists}
	if cls.WishlistName != nil {
		det.Candidate = strings.TrimSpace(*cls.WishlistName)
	}
	return det
}
