package client

import "time"

// Store is a merchant storefront on the platform.
type Store struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Domain     string     `json:"domain"`
	Plan       string     `json:"plan,omitempty"`
	OwnerEmail string     `json:"ownerEmail,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Product is a catalog entry belonging to a store.
type Product struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"storeId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PriceCents  int64      `json:"priceCents"`
	Currency    string     `json:"currency,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Customer is a storefront buyer as the dashboard lists them.
type Customer struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"storeId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	OrdersCount int        `json:"ordersCount"`
	TotalCents  int64      `json:"totalCents"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// CreditBalance is a store's current generation-credit standing.
type CreditBalance struct {
	StoreID   string     `json:"storeId"`
	Balance   int64      `json:"balance"`
	Used      int64      `json:"used"`
	Allowance int64      `json:"allowance"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CreditTransaction is one debit or credit against a store's balance.
type CreditTransaction struct {
	ID        string     `json:"id"`
	StoreID   string     `json:"storeId"`
	Amount    int64      `json:"amount"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Generation kinds.
const (
	GenerationImage = "image"
	GenerationVideo = "video"
)

// Generation is one AI image or video render tied to a product.
type Generation struct {
	ID        string     `json:"id"`
	StoreID   string     `json:"storeId"`
	ProductID string     `json:"productId,omitempty"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	Prompt    string     `json:"prompt,omitempty"`
	OutputURL string     `json:"outputUrl,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Order is a storefront purchase as the dashboard lists them.
type Order struct {
	ID         string     `json:"id"`
	StoreID    string     `json:"storeId"`
	CustomerID string     `json:"customerId,omitempty"`
	TotalCents int64      `json:"totalCents"`
	Currency   string     `json:"currency,omitempty"`
	Status     string     `json:"status,omitempty"`
	ItemCount  int        `json:"itemCount"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// CartEvent is the cart-tracking form's payload.
type CartEvent struct {
	StoreID    string     `json:"storeId"`
	SessionID  string     `json:"sessionId,omitempty"`
	EventType  string     `json:"eventType"`
	ProductID  string     `json:"productId,omitempty"`
	Quantity   int        `json:"quantity,omitempty"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}
