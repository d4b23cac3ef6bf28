package backend

import (
	"context"
	"errors"
	"net/http"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/intent"
)

// ListWishlists fetches the saved wishlists of user.
func (c *Client) ListWishlists(ctx context.Context, user domain.User) ([]domain.Wishlist, error) {
	var resp struct {
		Wishlists []wireWishlist `json:"wishlists"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/wishlists", user.Token, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Wishlist, 0, len(resp.Wishlists))
	for _, w := range resp.Wishlists {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// Classify asks the AI intent endpoint whether message is an order request.
func (c *Client) Classify(ctx context.Context, user domain.User, message string) (intent.Classification, error) {
	var resp struct {
		WantsToOrder bool    `json:"wantsToOrder"`
		WishlistName *string `json:"wishlistName"`
	}
	req := map[string]string{"message": message}
	if err := c.do(ctx, http.MethodPost, "/api/ai/intent", user.Token, req, &resp); err != nil {
		return intent.Classification{}, err
	}
	return intent.Classification{WantsToOrder: resp.WantsToOrder, WishlistName: resp.WishlistName}, nil
}

// SubmitOrder places sub with the order API.
func (c *Client) SubmitOrder(ctx context.Context, user domain.User, sub domain.OrderSubmission) (*domain.PlacedOrder, error) {
	var resp struct {
		Order *struct {
			ref
			Status string `json:"status"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", user.Token, sub, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, errors.New("order service returned no order")
	}
	return &domain.PlacedOrder{ID: resp.Order.id(), Status: resp.Order.Status}, nil
}

// Chat forwards message to the general assistant and returns its answer.
func (c *Client) Chat(ctx context.Context, user domain.User, message string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	req := map[string]string{"message": message}
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", user.Token, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CurrentUser loads the profile behind token, including the delivery address.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var resp struct {
		User *struct {
			ref
			Name    string       `json:"name"`
			Address *wireAddress `json:"address"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/me", token, nil, &resp); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if resp.User == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.User{
		ID:            resp.User.id(),
		Name:          resp.User.Name,
		Token:         token,
		Authenticated: true,
		Address:       resp.User.Address.toDomain(),
	}, nil
}
