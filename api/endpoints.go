package api

import (
	"context"
	"fmt"
	"net/http"
)

// Register creates a new account. Anonymous endpoint.
func (c *Client) Register(ctx context.Context, req UserCreate) Result[UserResponse] {
	return Do[UserResponse](ctx, c, http.MethodPost, "/auth/register", req, WithoutAuth())
}

// Login exchanges credentials for a bearer token. Anonymous endpoint.
func (c *Client) Login(ctx context.Context, req LoginRequest) Result[TokenResponse] {
	return Do[TokenResponse](ctx, c, http.MethodPost, "/auth/login", req, WithoutAuth())
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) Result[struct{}] {
	return Do[struct{}](ctx, c, http.MethodPost, "/auth/logout", nil)
}

// Me returns the identity behind the current token, or 401.
func (c *Client) Me(ctx context.Context) Result[UserResponse] {
	return Do[UserResponse](ctx, c, http.MethodGet, "/auth/me", nil)
}

// ListShops returns one page of shops.
func (c *Client) ListShops(ctx context.Context, offset, limit int) Result[[]ShopResponse] {
	path := fmt.Sprintf("/shop?offset=%d&limit=%d", offset, limit)
	return Do[[]ShopResponse](ctx, c, http.MethodGet, path, nil)
}

// GetShop returns a single shop by id.
func (c *Client) GetShop(ctx context.Context, id int64) Result[ShopResponse] {
	return Do[ShopResponse](ctx, c, http.MethodGet, fmt.Sprintf("/shop/%d", id), nil)
}

// CreateShop creates a shop.
func (c *Client) CreateShop(ctx context.Context, req ShopCreate) Result[ShopResponse] {
	return Do[ShopResponse](ctx, c, http.MethodPost, "/shop", req)
}

// UpdateShop updates a shop.
func (c *Client) UpdateShop(ctx context.Context, id int64, req ShopUpdate) Result[ShopResponse] {
	return Do[ShopResponse](ctx, c, http.MethodPut, fmt.Sprintf("/shop/%d", id), req)
}

// DeleteShop deletes a shop.
func (c *Client) DeleteShop(ctx context.Context, id int64) Result[struct{}] {
	return Do[struct{}](ctx, c, http.MethodDelete, fmt.Sprintf("/shop/%d", id), nil)
}

// AccountTitles returns the revenue and expense titles of a shop.
func (c *Client) AccountTitles(ctx context.Context, shopID int64) Result[AccountTitles] {
	return Do[AccountTitles](ctx, c, http.MethodGet, fmt.Sprintf("/shop/%d/account_title", shopID), nil)
}

// AccountEntries returns the pivoted ledger entries of a shop for one year.
func (c *Client) AccountEntries(ctx context.Context, shopID int64, year int) Result[AccountEntries] {
	path := fmt.Sprintf("/shop/%d/account_entry?year=%d", shopID, year)
	return Do[AccountEntries](ctx, c, http.MethodGet, path, nil)
}

// SaveAccountEntries creates or updates the ledger entries of a shop.
func (c *Client) SaveAccountEntries(ctx context.Context, shopID int64, req AccountEntriesUpdate) Result[struct{}] {
	return Do[struct{}](ctx, c, http.MethodPost, fmt.Sprintf("/shop/%d/account_entry", shopID), req)
}
