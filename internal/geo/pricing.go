package geo

import (
	"math"

	"bigbite-orderbot/internal/domain"
)

const (
	// FeePerKm is charged per kilometre of delivery distance.
	FeePerKm = 8.0
	// FallbackDeliveryFee applies when either endpoint has no coordinates.
	FallbackDeliveryFee = 40.0
	PlatformFeeRate     = 0.05
	GSTRate             = 0.05
)

// LineItem is the pricing view of an order line.
type LineItem struct {
	Price    float64
	Quantity int
}

// DeliveryFee is distance × FeePerKm rounded to a whole unit, or the
// fallback fee when the distance cannot be computed.
func DeliveryFee(restaurant, customer *domain.Coordinates) float64 {
	if restaurant == nil || customer == nil {
		return FallbackDeliveryFee
	}
	return math.Round(Distance(*restaurant, *customer) * FeePerKm)
}

// Quote prices a set of lines delivered from restaurant to customer.
// The delivery fee is rounded before the platform fee and GST are derived
// from it. The total is the sum of the rounded components so a client can
// rebuild it from the breakdown.
func Quote(restaurant, customer *domain.Coordinates, items []LineItem) domain.PricingBreakdown {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}

	delivery := DeliveryFee(restaurant, customer)
	platform := subtotal * PlatformFeeRate
	gst := (subtotal + delivery + platform) * GSTRate

	out := domain.PricingBreakdown{
		Subtotal:    Round2(subtotal),
		DeliveryFee: delivery,
		PlatformFee: Round2(platform),
		GST:         Round2(gst),
	}
	out.TotalAmount = Round2(out.Subtotal + out.DeliveryFee + out.PlatformFee + out.GST)
	if restaurant != nil && customer != nil {
		d := Round2(Distance(*restaurant, *customer))
		out.DistanceKm = &d
	}
	return out
}

// QuoteWishlist prices every item of a wishlist for delivery to customer.
func QuoteWishlist(w domain.Wishlist, customer *domain.Coordinates) domain.PricingBreakdown {
	items := make([]LineItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, LineItem{Price: it.MenuItem.Price, Quantity: it.Quantity})
	}
	return Quote(w.Restaurant.Location, customer, items)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
