// Package domain defines the read-only product catalog mirrored from the
// central server. The server owns the catalog; the terminal only pulls.
package domain

import "time"

// Product is one catalog item. The ID is the server's identifier, so repeated
// pulls converge by upsert instead of duplicating rows.
type Product struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	PriceCents  int64     `json:"price_cents"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductPage is one page of catalog changes from the server.
type ProductPage struct {
	Products   []*Product
	HasMore    bool
	ServerTime time.Time
}

// PullResult summarizes a completed catalog pull.
type PullResult struct {
	Upserted  int       `json:"upserted"`
	Watermark time.Time `json:"watermark"`
	Full      bool      `json:"full"`
}
