package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestAddToCart_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &store.Product{Nombre: "Termo", Slug: "termo", SKU: "T-1", Precio: 10, Stock: 10, Activo: true}
	require.NoError(t, s.CreateProduct(ctx, p))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddToCart(ctx, 1, p.ID, 1); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	items, err := s.CartItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Cantidad)
}

func TestInquiries(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateInquiry(context.Background(), &store.Inquiry{Nombre: "A", Email: "a@example.com", Mensaje: "mensaje largo"}))
	require.NoError(t, s.CreateInquiry(context.Background(), &store.Inquiry{Nombre: "B", Email: "b@example.com", Mensaje: "otro mensaje"}))

	got := s.Inquiries()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Nombre)
}
