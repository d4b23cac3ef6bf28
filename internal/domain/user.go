package domain

import (
	"fmt"
	"strings"
)

// Address is a delivery address. Only the coordinates matter for ordering;
// the textual fields are shown back to the user.
type Address struct {
	Street    string   `json:"street,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	ZipCode   string   `json:"zipCode,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinates returns nil unless both latitude and longitude are present.
func (a *Address) Coordinates() *Coordinates {
	if a == nil || a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *a.Latitude, Longitude: *a.Longitude}
}

func (a *Address) String() string {
	if a == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if c := a.Coordinates(); c != nil {
		return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
	}
	return ""
}

// User is the caller of a conversation turn. Token is the bearer credential
// forwarded to the backend; it is empty for guests.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Token         string   `json:"-"`
	Authenticated bool     `json:"authenticated"`
	Address       *Address `json:"address,omitempty"`
}
