/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import "github.com/go-openapi/strfmt"

// Product is a catalog item. Products and Orders share one container in
// the tests, keyed by tenant.
type Product struct {

	// Unique identifier for the product.
	// Required: true
	ID string `json:"id"`

	// Display name of the product.
	// Required: true
	Name string `json:"name"`

	// category
	Category string `json:"category,omitempty"`

	// Unit price.
	// Required: true
	Price float64 `json:"price"`

	// tags
	Tags []string `json:"tags,omitempty"`

	// Timestamp when the product was created.
	// Format: date-time
	CreatedAt strfmt.DateTime `json:"createdAt,omitempty"`
}

// GetID makes the product id the document id.
func (p Product) GetID() string { return p.ID }

// Order shares field names with Product on purpose.
type Order struct {

	// Unique identifier for the order.
	// Required: true
	ID string `json:"id"`

	// Customer that placed the order.
	// Required: true
	CustomerID string `json:"customerId"`

	// Name of the order, e.g. a purchase order number.
	Name string `json:"name,omitempty"`

	// Order total, same JSON name as Product.Price.
	Price float64 `json:"price"`

	// status
	// Enum: [open shipped cancelled]
	Status string `json:"status,omitempty"`

	// Timestamp when the order was placed.
	// Format: date-time
	PlacedAt *strfmt.DateTime `json:"placedAt,omitempty"`
}

func (o Order) GetID() string { return o.ID }

// EntityType makes Order self-describing without registration.
func (Order) EntityType() string { return "Order" }
