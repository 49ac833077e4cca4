package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount float64
		want     float64
	}{
		{"no discount", 100, 0, 100},
		{"quarter off", 100, 25, 75},
		{"half off", 49.99, 50, 24.995},
		{"full discount", 10, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Price: tt.price, Discount: tt.discount}
			assert.InDelta(t, tt.want, p.FinalPrice(), 1e-9)
		})
	}
}

func TestCartItemLineTotal(t *testing.T) {
	item := CartItem{
		Product:  Product{Price: 20, Discount: 10},
		Quantity: 3,
	}
	assert.InDelta(t, 54, item.LineTotal(), 1e-9)
}

func TestOrderGrandTotal(t *testing.T) {
	order := Order{Subtotal: 95.5, ShippingCost: 5}
	assert.InDelta(t, 100.5, order.GrandTotal(), 1e-9)

	// Shipping is never folded into the stored subtotal.
	order.ShippingCost = 7.5
	assert.InDelta(t, 103, order.GrandTotal(), 1e-9)
}

func TestOrderItemLineTotal(t *testing.T) {
	item := OrderItem{Quantity: 4, PricePerItem: 12.5}
	assert.InDelta(t, 50, item.LineTotal(), 1e-9)
}
