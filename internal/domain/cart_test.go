package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    CartItem
		wantErr bool
	}{
		{"valid", CartItem{ProductID: 1, Name: "Mug", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 1}, false},
		{"free item", CartItem{ProductID: 2, UnitPrice: decimal.Zero, Quantity: 3}, false},
		{"missing product", CartItem{UnitPrice: decimal.NewFromInt(1), Quantity: 1}, true},
		{"negative price", CartItem{ProductID: 1, UnitPrice: decimal.NewFromInt(-1), Quantity: 1}, true},
		{"zero quantity", CartItem{ProductID: 1, UnitPrice: decimal.NewFromInt(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidItem)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, UnitPrice: decimal.RequireFromString("25.00"), Quantity: 2},
		{ProductID: 2, UnitPrice: decimal.RequireFromString("0.10"), Quantity: 3},
	}

	assert.True(t, Total(items).Equal(decimal.RequireFromString("50.30")))
	assert.True(t, Total(nil).IsZero())
}

func TestSameLines(t *testing.T) {
	a := []CartItem{{ProductID: 1, UnitPrice: decimal.NewFromInt(5), Quantity: 1}}
	b := []CartItem{{ProductID: 1, Name: "renamed", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1}}

	assert.True(t, SameLines(a, b))
	assert.False(t, SameLines(a, nil))

	b[0].Quantity = 2
	assert.False(t, SameLines(a, b))
}

func TestNewOrderRequest(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, UnitPrice: decimal.NewFromInt(25), Quantity: 2},
		{ProductID: 1, UnitPrice: decimal.NewFromInt(25), Quantity: 1},
	}

	req := NewOrderRequest(Session{UserID: 7}, items, "1 Main St", Total(items))

	assert.Equal(t, int64(7), req.UserID)
	assert.Equal(t, []OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 1}}, req.Items)
	assert.Equal(t, "1 Main St", req.ShippingAddress)
	assert.True(t, req.Total.Equal(decimal.NewFromInt(75)))
}
