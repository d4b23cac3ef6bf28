package domain

import "time"

// PaymentPayOnDelivery is the only payment method the assistant offers.
const PaymentPayOnDelivery = "pay on delivery"

// PricingBreakdown is derived at placement time and never stored by the
// conversation itself. Amounts are rounded to two decimals.
type PricingBreakdown struct {
	Subtotal    float64  `json:"subtotal"`
	DeliveryFee float64  `json:"deliveryFee"`
	PlatformFee float64  `json:"platformFee"`
	GST         float64  `json:"gst"`
	TotalAmount float64  `json:"totalAmount"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
}

type OrderLine struct {
	MenuItemID string  `json:"menuItem"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// OrderSubmission is the payload handed to the order API.
type OrderSubmission struct {
	CustomerID      string           `json:"customerId"`
	RestaurantID    string           `json:"restaurantId"`
	Items           []OrderLine      `json:"items"`
	DeliveryAddress Address          `json:"deliveryAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	Pricing         PricingBreakdown `json:"pricing"`
}

// PlacedOrder is what the order API reports back after accepting a submission.
type PlacedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// AssistantOrder is the local record of an order placed through the assistant.
type AssistantOrder struct {
	ID           string           `json:"id"`
	OrderID      string           `json:"orderId"`
	CustomerID   string           `json:"customerId"`
	RestaurantID string           `json:"restaurantId"`
	WishlistID   string           `json:"wishlistId"`
	WishlistName string           `json:"wishlistName"`
	Pricing      PricingBreakdown `json:"pricing"`
	CreatedAt    time.Time        `json:"createdAt"`
}
