package mockapi

import (
	"strings"
	"time"

	"github.com/shopglow/go-session/client"
)

func timePtr(t time.Time) *time.Time { return &t }

// seedData is the canned dashboard dataset the resource endpoints serve.
type seedData struct {
	stores       []client.Store
	products     []client.Product
	customers    []client.Customer
	transactions []client.CreditTransaction
	balances     map[string]client.CreditBalance
	generations  []client.Generation
	orders       []client.Order
}

func defaultSeedData() seedData {
	now := time.Now().UTC()

	return seedData{
		stores: []client.Store{
			{ID: "st_1", Name: "Aurora Prints", Domain: "aurora-prints.example.com", Plan: "growth", OwnerEmail: "maya@aurora-prints.example.com", CreatedAt: timePtr(now.Add(-90 * 24 * time.Hour))},
			{ID: "st_2", Name: "Basalt Goods", Domain: "basalt-goods.example.com", Plan: "starter", OwnerEmail: "theo@basalt-goods.example.com", CreatedAt: timePtr(now.Add(-30 * 24 * time.Hour))},
		},
		products: []client.Product{
			{ID: "pr_1", StoreID: "st_1", Title: "Nebula Poster", PriceCents: 2400, Currency: "USD", Status: "active", CreatedAt: timePtr(now.Add(-20 * 24 * time.Hour))},
			{ID: "pr_2", StoreID: "st_1", Title: "Comet Mug", PriceCents: 1600, Currency: "USD", Status: "active", CreatedAt: timePtr(now.Add(-18 * 24 * time.Hour))},
			{ID: "pr_3", StoreID: "st_2", Title: "Granite Coaster Set", PriceCents: 3200, Currency: "USD", Status: "draft", CreatedAt: timePtr(now.Add(-5 * 24 * time.Hour))},
		},
		customers: []client.Customer{
			{ID: "cu_1", StoreID: "st_1", Name: "Iris Vance", Email: "iris@example.com", OrdersCount: 4, TotalCents: 9600, CreatedAt: timePtr(now.Add(-60 * 24 * time.Hour))},
			{ID: "cu_2", StoreID: "st_2", Name: "Oscar Lind", Email: "oscar@example.com", OrdersCount: 1, TotalCents: 3200, CreatedAt: timePtr(now.Add(-3 * 24 * time.Hour))},
		},
		transactions: []client.CreditTransaction{
			{ID: "tx_1", StoreID: "st_1", Amount: -5, Reason: "image generation", CreatedAt: timePtr(now.Add(-48 * time.Hour))},
			{ID: "tx_2", StoreID: "st_1", Amount: 100, Reason: "monthly allowance", CreatedAt: timePtr(now.Add(-72 * time.Hour))},
			{ID: "tx_3", StoreID: "st_2", Amount: -20, Reason: "video generation", CreatedAt: timePtr(now.Add(-24 * time.Hour))},
		},
		balances: map[string]client.CreditBalance{
			"st_1": {StoreID: "st_1", Balance: 95, Used: 5, Allowance: 100, UpdatedAt: timePtr(now.Add(-48 * time.Hour))},
			"st_2": {StoreID: "st_2", Balance: 30, Used: 20, Allowance: 50, UpdatedAt: timePtr(now.Add(-24 * time.Hour))},
		},
		generations: []client.Generation{
			{ID: "gn_1", StoreID: "st_1", ProductID: "pr_1", Kind: client.GenerationImage, Status: "completed", Prompt: "poster on a loft wall", OutputURL: "https://cdn.example.com/gn_1.png", CreatedAt: timePtr(now.Add(-47 * time.Hour))},
			{ID: "gn_2", StoreID: "st_2", ProductID: "pr_3", Kind: client.GenerationVideo, Status: "processing", Prompt: "coasters on an oak table", CreatedAt: timePtr(now.Add(-23 * time.Hour))},
		},
		orders: []client.Order{
			{ID: "or_1", StoreID: "st_1", CustomerID: "cu_1", TotalCents: 4000, Currency: "USD", Status: "fulfilled", ItemCount: 2, CreatedAt: timePtr(now.Add(-40 * time.Hour))},
			{ID: "or_2", StoreID: "st_2", CustomerID: "cu_2", TotalCents: 3200, Currency: "USD", Status: "pending", ItemCount: 1, CreatedAt: timePtr(now.Add(-2 * time.Hour))},
		},
	}
}

// listQuery mirrors the dashboard's shared list parameters.
type listQuery struct {
	page    int
	perPage int
	search  string
	storeID string
}

func paginate[T any](items []T, q listQuery, storeOf func(T) string, matches func(T, string) bool) pageResponse[T] {
	filtered := make([]T, 0, len(items))
	needle := strings.ToLower(q.search)
	for _, item := range items {
		if q.storeID != "" && storeOf(item) != q.storeID {
			continue
		}
		if needle != "" && !matches(item, needle) {
			continue
		}
		filtered = append(filtered, item)
	}

	page := q.page
	if page < 1 {
		page = 1
	}
	perPage := q.perPage
	if perPage < 1 {
		perPage = 20
	}

	start := (page - 1) * perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + perPage
	if end > len(filtered) {
		end = len(filtered)
	}

	totalPages := (len(filtered) + perPage - 1) / perPage

	return pageResponse[T]{
		Success:    true,
		Data:       filtered[start:end],
		Page:       page,
		PerPage:    perPage,
		Total:      int64(len(filtered)),
		TotalPages: totalPages,
	}
}

type pageResponse[T any] struct {
	Success    bool  `json:"success"`
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
