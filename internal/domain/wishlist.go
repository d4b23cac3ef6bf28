package domain

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RestaurantRef points at the restaurant a wishlist orders from. The backend
// may send only the id; Location is set when the record came expanded.
type RestaurantRef struct {
	ID       string       `json:"id"`
	Name     string       `json:"name,omitempty"`
	Location *Coordinates `json:"location,omitempty"`
}

type MenuItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type WishlistItem struct {
	MenuItem MenuItem `json:"menuItem"`
	Quantity int      `json:"quantity"`
}

// Wishlist is a saved, named set of menu items from one restaurant.
type Wishlist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Restaurant RestaurantRef  `json:"restaurant"`
	Items      []WishlistItem `json:"items"`
}

// Subtotal sums price × quantity over the items.
func (w Wishlist) Subtotal() float64 {
	var total float64
	for _, it := range w.Items {
		total += it.MenuItem.Price * float64(it.Quantity)
	}
	return total
}

// ItemCount is the total quantity across items.
func (w Wishlist) ItemCount() int {
	n := 0
	for _, it := range w.Items {
		n += it.Quantity
	}
	return n
}

// FindWishlist returns the wishlist with the given id from a snapshot.
func FindWishlist(wishlists []Wishlist, id string) (*Wishlist, bool) {
	for i := range wishlists {
		if wishlists[i].ID == id {
			return &wishlists[i], true
		}
	}
	return nil, false
}
