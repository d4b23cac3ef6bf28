package conversation

import (
	"time"

	"bigbite-orderbot/internal/domain"
)

// State is the step an ordering conversation is at.
type State string

const (
	Idle              State = "idle"
	ConfirmingItems   State = "confirming_items"
	ConfirmingAddress State = "confirming_address"
	PlacingOrder      State = "placing_order"
)

func (s State) Valid() bool {
	switch s {
	case Idle, ConfirmingItems, ConfirmingAddress, PlacingOrder:
		return true
	}
	return false
}

// Session is the conversation state of one user. It is a value: Dispatch
// takes one and returns the next. Wishlists is the snapshot taken when the
// conversation started; SelectedWishlistID refers into it and is set only
// outside Idle.
type Session struct {
	UserID             string            `json:"userId"`
	State              State             `json:"state"`
	SelectedWishlistID string            `json:"selectedWishlistId,omitempty"`
	Wishlists          []domain.Wishlist `json:"wishlists,omitempty"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

func NewSession(userID string) Session {
	return Session{UserID: userID, State: Idle}
}

// Reset returns the session to Idle and drops the selection and snapshot.
func (s Session) Reset() Session {
	return Session{UserID: s.UserID, State: Idle, UpdatedAt: s.UpdatedAt}
}

// Active reports whether an ordering conversation is in progress.
func (s Session) Active() bool {
	return s.State != Idle && s.State != ""
}

// Selected looks up the selected wishlist in the snapshot.
func (s Session) Selected() (*domain.Wishlist, bool) {
	if s.SelectedWishlistID == "" {
		return nil, false
	}
	return domain.FindWishlist(s.Wishlists, s.SelectedWishlistID)
}
