package backend

import (
	"encoding/json"

	"bigbite-orderbot/internal/domain"
)

// The web API uses Mongo-style "_id" keys and sends references either as a
// bare id string or as the expanded document. These types accept both.

type ref struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
}

func (r ref) id() string {
	if r.MongoID != "" {
		return r.MongoID
	}
	return r.ID
}

type geoPoint struct {
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Coordinates []float64 `json:"coordinates"` // GeoJSON order: lng, lat
}

func (g *geoPoint) coordinates() *domain.Coordinates {
	if g == nil {
		return nil
	}
	if g.Latitude != nil && g.Longitude != nil {
		return &domain.Coordinates{Latitude: *g.Latitude, Longitude: *g.Longitude}
	}
	if len(g.Coordinates) == 2 {
		return &domain.Coordinates{Latitude: g.Coordinates[1], Longitude: g.Coordinates[0]}
	}
	return nil
}

type wireRestaurant struct {
	domain.RestaurantRef
}

func (w *wireRestaurant) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		w.ID = id
		return nil
	}
	var doc struct {
		ref
		Name     string    `json:"name"`
		Location *geoPoint `json:"location"`
		geoPoint
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	w.ID = doc.id()
	w.Name = doc.Name
	w.Location = doc.Location.coordinates()
	if w.Location == nil {
		w.Location = doc.geoPoint.coordinates()
	}
	return nil
}

type wireMenuItem struct {
	domain.MenuItem
}

func (w *wireMenuItem) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		w.ID = id
		return nil
	}
	var doc struct {
		ref
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	w.MenuItem = domain.MenuItem{ID: doc.id(), Name: doc.Name, Price: doc.Price}
	return nil
}

type wireWishlist struct {
	ref
	Name       string         `json:"name"`
	Restaurant wireRestaurant `json:"restaurant"`
	Items      []struct {
		MenuItem wireMenuItem `json:"menuItem"`
		Quantity int          `json:"quantity"`
	} `json:"items"`
}

func (w wireWishlist) toDomain() domain.Wishlist {
	out := domain.Wishlist{
		ID:         w.id(),
		Name:       w.Name,
		Restaurant: w.Restaurant.RestaurantRef,
		Items:      make([]domain.WishlistItem, 0, len(w.Items)),
	}
	for _, it := range w.Items {
		out.Items = append(out.Items, domain.WishlistItem{MenuItem: it.MenuItem.MenuItem, Quantity: it.Quantity})
	}
	return out
}

type wireAddress struct {
	Street   string    `json:"street"`
	City     string    `json:"city"`
	State    string    `json:"state"`
	ZipCode  string    `json:"zipCode"`
	Country  string    `json:"country"`
	Location *geoPoint `json:"location"`
	geoPoint
}

func (a *wireAddress) toDomain() *domain.Address {
	if a == nil {
		return nil
	}
	out := &domain.Address{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
	c := a.geoPoint.coordinates()
	if c == nil {
		c = a.Location.coordinates()
	}
	if c != nil {
		lat, lng := c.Latitude, c.Longitude
		out.Latitude, out.Longitude = &lat, &lng
	}
	return out
}
