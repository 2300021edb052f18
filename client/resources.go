package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListParams are the query knobs every dashboard list shares. Zero values
// are omitted from the request so the backend's defaults apply.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
	// StoreID narrows platform-wide lists to a single store.
	StoreID string
}

func (p ListParams) query() string {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		values.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	if p.StoreID != "" {
		values.Set("storeId", p.StoreID)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Page is one page of a listed resource.
type Page[T any] struct {
	Items      []T   `json:"data"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func list[T any](ctx context.Context, c *Client, path string, params ListParams) (Page[T], error) {
	var page Page[T]
	if err := c.do(ctx, http.MethodGet, path+params.query(), nil, &page); err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

func get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	out := new(T)
	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stores lists the stores visible to the current user.
func (c *Client) Stores(ctx context.Context, params ListParams) (Page[Store], error) {
	return list[Store](ctx, c, "/api/stores", params)
}

// GetStore fetches a single store.
func (c *Client) GetStore(ctx context.Context, id string) (*Store, error) {
	return get[Store](ctx, c, "/api/stores/"+url.PathEscape(id))
}

// Products lists catalog entries.
func (c *Client) Products(ctx context.Context, params ListParams) (Page[Product], error) {
	return list[Product](ctx, c, "/api/products", params)
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	return get[Product](ctx, c, "/api/products/"+url.PathEscape(id))
}

// Customers lists storefront buyers.
func (c *Client) Customers(ctx context.Context, params ListParams) (Page[Customer], error) {
	return list[Customer](ctx, c, "/api/customers", params)
}

// Credits lists credit transactions.
func (c *Client) Credits(ctx context.Context, params ListParams) (Page[CreditTransaction], error) {
	return list[CreditTransaction](ctx, c, "/api/credits", params)
}

// CreditBalance fetches a store's current balance.
func (c *Client) CreditBalance(ctx context.Context, storeID string) (*CreditBalance, error) {
	return get[CreditBalance](ctx, c, "/api/credits/"+url.PathEscape(storeID)+"/balance")
}

// Generations lists AI render records.
func (c *Client) Generations(ctx context.Context, params ListParams) (Page[Generation], error) {
	return list[Generation](ctx, c, "/api/generations", params)
}

// Orders lists storefront purchases.
func (c *Client) Orders(ctx context.Context, params ListParams) (Page[Order], error) {
	return list[Order](ctx, c, "/api/orders", params)
}

// TrackCartEvent reports a cart interaction. Fire-and-forget from the
// caller's point of view; the backend replies with no body.
func (c *Client) TrackCartEvent(ctx context.Context, event CartEvent) error {
	return c.do(ctx, http.MethodPost, "/api/track/cart", event, nil)
}
