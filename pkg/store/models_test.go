package store

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_StockState(t *testing.T) {
	tests := []struct {
		stock int
		want  string
	}{
		{0, "sin_stock"},
		{1, "stock_bajo"},
		{LowStockThreshold, "stock_bajo"},
		{LowStockThreshold + 1, "disponible"},
	}
	for _, tt := range tests {
		p := Product{Stock: tt.stock}
		assert.Equal(t, tt.want, p.StockState(), "stock=%d", tt.stock)
	}
}

func TestProduct_DiscountPercent(t *testing.T) {
	before := 200.0
	p := Product{Precio: 150, PrecioAnterior: &before}
	assert.Equal(t, 25, p.DiscountPercent())

	third := 3.0
	p = Product{Precio: 2, PrecioAnterior: &third}
	assert.Equal(t, 33, p.DiscountPercent())

	lower := 100.0
	p = Product{Precio: 150, PrecioAnterior: &lower}
	assert.Zero(t, p.DiscountPercent())

	assert.Zero(t, (&Product{Precio: 10}).DiscountPercent())
}

func TestNewOrderNumber(t *testing.T) {
	re := regexp.MustCompile(`^PED-[0-9A-F]{8}$`)
	a, b := NewOrderNumber(), NewOrderNumber()
	assert.Regexp(t, re, a)
	assert.NotEqual(t, a, b)
}

func TestTypedErrors(t *testing.T) {
	var err error = &StockError{ProductID: 3, Available: 2}
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "only 2 units")

	err = &ConflictError{Field: "sku"}
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "sku already exists", err.Error())
}

func TestOrder_Deletable(t *testing.T) {
	for estado, want := range map[string]bool{
		OrderPending: true, OrderCancelled: true,
		OrderProcessing: false, OrderShipped: false, OrderDelivered: false,
	} {
		o := Order{Estado: estado}
		assert.Equal(t, want, o.Deletable(), estado)
	}
}

func TestProductFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, ProductFilter{Limit: 20}.Offset())
	assert.Equal(t, 0, ProductFilter{Limit: 20, Page: 1}.Offset())
	assert.Equal(t, 40, ProductFilter{Limit: 20, Page: 3}.Offset())
}
