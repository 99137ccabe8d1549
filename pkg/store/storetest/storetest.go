// Package storetest is a behavioural suite every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Catalog", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("Cart", func(t *testing.T) { testCart(t, newStore(t)) })
	t.Run("Checkout", func(t *testing.T) { testCheckout(t, newStore(t)) })
	t.Run("OrderLifecycle", func(t *testing.T) { testOrderLifecycle(t, newStore(t)) })
	t.Run("DeleteProduct", func(t *testing.T) { testDeleteProduct(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("Inquiry", func(t *testing.T) { testInquiry(t, newStore(t)) })
}

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, s store.Store, email, role string) *store.User {
	t.Helper()
	u := &store.User{
		Nombre: "Ana", Apellido: "Pérez", Email: email,
		PasswordHash: "$2a$12$hash", Rol: role, Activo: true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, s store.Store, p store.Product) *store.Product {
	t.Helper()
	if p.Precio == 0 {
		p.Precio = 100
	}
	if p.Slug == "" {
		p.Slug = p.SKU
	}
	if p.Nombre == "" {
		p.Nombre = "Producto " + p.SKU
	}
	require.NoError(t, s.CreateProduct(context.Background(), &p))
	return &p
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s, "ana@example.com", store.RoleCustomer)
	assert.NotZero(t, u.ID)
	assert.False(t, u.FechaRegistro.IsZero())

	err := s.CreateUser(ctx, &store.User{Nombre: "B", Apellido: "C", Email: "ana@example.com", PasswordHash: "x", Rol: store.RoleCustomer})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.UserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "$2a$12$hash", got.PasswordHash)

	_, err = s.UserByID(ctx, u.ID+1000)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.TouchLastLogin(ctx, u.ID))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.UltimaSesion)

	updated, err := s.UpdateUser(ctx, u.ID, store.UserUpdate{
		Nombre: "Ana María", Apellido: "Pérez", Email: "ana@example.com", Rol: store.RoleAdmin, Activo: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Nombre)
	assert.Equal(t, store.RoleAdmin, updated.Rol)
	assert.False(t, updated.Activo)
	assert.Equal(t, "$2a$12$hash", updated.PasswordHash, "empty hash keeps the password")

	other := seedUser(t, s, "otro@example.com", store.RoleCustomer)
	_, err = s.UpdateUser(ctx, other.ID, store.UserUpdate{Nombre: "O", Apellido: "O", Email: "ana@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, s.DeleteUser(ctx, other.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, other.ID), store.ErrNotFound)
}

func testCatalog(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := &store.Category{Nombre: "Mates", Slug: "mates"}
	require.NoError(t, s.CreateCategory(ctx, cat))
	assert.ErrorIs(t, s.CreateCategory(ctx, &store.Category{Nombre: "Otra", Slug: "mates"}), store.ErrConflict)

	cheap := seedProduct(t, s, store.Product{Nombre: "Mate calabaza", SKU: "MATE-1", Precio: 50, Stock: 10, CategoriaID: &cat.ID, Activo: true})
	seedProduct(t, s, store.Product{Nombre: "Bombilla", SKU: "BOMB-1", Precio: 20, Stock: 0, Activo: true, Destacado: true})
	seedProduct(t, s, store.Product{Nombre: "Termo", SKU: "TERMO-1", Precio: 300, Stock: 3, Activo: true})
	seedProduct(t, s, store.Product{Nombre: "Oculto", SKU: "HIDDEN-1", Precio: 10, Stock: 3, Activo: false})

	err := s.CreateProduct(ctx, &store.Product{Nombre: "Dup", Slug: "dup", SKU: "MATE-1", Precio: 1, Activo: true})
	assert.ErrorIs(t, err, store.ErrConflict)

	list, total, err := s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, Ordenar: store.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"BOMB-1", "MATE-1", "TERMO-1"}, []string{list[0].SKU, list[1].SKU, list[2].SKU})

	list, total, err = s.ListProducts(ctx, store.ProductFilter{Limit: 2, Page: 2, Ordenar: store.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "TERMO-1", list[0].SKU)

	list, _, err = s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, CategoriaSlug: "mates"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Categoria)
	assert.Equal(t, "mates", list[0].Categoria.Slug)

	list, _, err = s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, Busqueda: "calabaza"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cheap.ID, list[0].ID)

	_, total, err = s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, SoloStock: true, PrecioMax: ptr(100.0)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, Destacado: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = s.ListProducts(ctx, store.ProductFilter{Limit: 20, Page: 1, IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	got, err := s.ProductBySlug(ctx, cheap.Slug)
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, got.ID)
	_, err = s.ProductBySlug(ctx, "HIDDEN-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.IncrementViews(ctx, cheap.ID))
	got, err = s.ProductByID(ctx, cheap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Vistas)

	exists, err := s.SlugExists(ctx, cheap.Slug, 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.SlugExists(ctx, cheap.Slug, cheap.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	got.Nombre = "Mate imperial"
	got.Slug = "mate-imperial"
	got.Precio = 75
	require.NoError(t, s.UpdateProduct(ctx, got))
	got, err = s.ProductByID(ctx, cheap.ID)
	require.NoError(t, err)
	assert.Equal(t, "mate-imperial", got.Slug)
	assert.InDelta(t, 75.0, got.Precio, 0.001)
	assert.Equal(t, 1, got.Vistas)

	got.SKU = "TERMO-1"
	assert.ErrorIs(t, s.UpdateProduct(ctx, got), store.ErrConflict)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Mates", cats[0].Nombre)
}

func testCart(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s, "cart@example.com", store.RoleCustomer)
	other := seedUser(t, s, "other@example.com", store.RoleCustomer)
	p := seedProduct(t, s, store.Product{SKU: "CART-1", Stock: 5, Activo: true})
	off := seedProduct(t, s, store.Product{SKU: "CART-OFF", Stock: 5, Activo: false})

	qty, err := s.AddToCart(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
	qty, err = s.AddToCart(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	_, err = s.AddToCart(ctx, u.ID, p.ID, 1)
	var stockErr *store.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	_, err = s.AddToCart(ctx, u.ID, off.ID, 1)
	assert.ErrorIs(t, err, store.ErrInactive)
	_, err = s.AddToCart(ctx, u.ID, p.ID+1000, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	items, err := s.CartItems(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].Producto.ID)
	assert.Equal(t, 5, items[0].Cantidad)

	items, err = s.CartItems(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.UpdateCartItem(ctx, u.ID, p.ID, 1))
	assert.ErrorIs(t, s.UpdateCartItem(ctx, u.ID, p.ID, 6), store.ErrInsufficientStock)
	assert.ErrorIs(t, s.UpdateCartItem(ctx, other.ID, p.ID, 1), store.ErrNotFound)
	assert.ErrorIs(t, s.RemoveCartItem(ctx, other.ID, p.ID), store.ErrNotFound)

	require.NoError(t, s.RemoveCartItem(ctx, u.ID, p.ID))
	items, err = s.CartItems(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.AddToCart(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, s.ClearCart(ctx, u.ID))
	items, err = s.CartItems(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testCheckout(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s, "buyer@example.com", store.RoleCustomer)
	a := seedProduct(t, s, store.Product{SKU: "CO-A", Precio: 100, Stock: 4, Activo: true})
	b := seedProduct(t, s, store.Product{SKU: "CO-B", Precio: 25.5, Stock: 10, Activo: true})

	_, err := s.Checkout(ctx, u.ID, store.CheckoutInput{DireccionEnvio: "Calle 123", MetodoPago: "efectivo"})
	assert.ErrorIs(t, err, store.ErrEmptyCart)

	_, err = s.AddToCart(ctx, u.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, u.ID, b.ID, 2)
	require.NoError(t, err)

	order, err := s.Checkout(ctx, u.ID, store.CheckoutInput{
		NumeroPedido: "PED-TEST0001", DireccionEnvio: "Calle 123", MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, "PED-TEST0001", order.NumeroPedido)
	assert.Equal(t, store.OrderPending, order.Estado)
	assert.Len(t, order.Items, 2)
	assert.InDelta(t, 251.0, order.Total, 0.001)

	items, err := s.CartItems(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := s.ProductByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 2, got.Ventas)

	orders, err := s.OrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 2)

	// Stock dropped under the cart quantity after it was added.
	_, err = s.AddToCart(ctx, u.ID, a.ID, 2)
	require.NoError(t, err)
	got.Stock = 1
	require.NoError(t, s.UpdateProduct(ctx, got))
	_, err = s.Checkout(ctx, u.ID, store.CheckoutInput{DireccionEnvio: "Calle 123", MetodoPago: "efectivo"})
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
	items, err = s.CartItems(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1, "failed checkout keeps the cart")
}

func placeOrder(t *testing.T, s store.Store, userID, productID int64, qty int) *store.Order {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddToCart(ctx, userID, productID, qty)
	require.NoError(t, err)
	o, err := s.Checkout(ctx, userID, store.CheckoutInput{DireccionEnvio: "Calle 123", MetodoPago: "transferencia"})
	require.NoError(t, err)
	return o
}

func testOrderLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s, "life@example.com", store.RoleCustomer)
	p := seedProduct(t, s, store.Product{SKU: "LIFE-1", Stock: 10, Activo: true})
	o := placeOrder(t, s, u.ID, p.ID, 3)

	shipped, err := s.UpdateOrderStatus(ctx, o.ID, store.OrderShipped)
	require.NoError(t, err)
	require.NotNil(t, shipped.FechaEnviado)
	assert.Nil(t, shipped.FechaEntregado)
	assert.Equal(t, "life@example.com", shipped.UsuarioEmail)

	assert.ErrorIs(t, s.DeleteOrder(ctx, o.ID), store.ErrOrderLocked)

	list, err := s.ListOrders(ctx, store.OrderShipped)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.ListOrders(ctx, store.OrderPending)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.UpdateOrderStatus(ctx, o.ID, store.OrderCancelled)
	require.NoError(t, err)
	require.NoError(t, s.DeleteOrder(ctx, o.ID))

	_, err = s.OrderByID(ctx, o.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := s.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock, "stock restored")

	_, err = s.UpdateOrderStatus(ctx, o.ID, store.OrderShipped)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteProduct(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := seedUser(t, s, "del@example.com", store.RoleCustomer)
	sold := seedProduct(t, s, store.Product{SKU: "DEL-SOLD", Stock: 5, Activo: true})
	unsold := seedProduct(t, s, store.Product{SKU: "DEL-NEW", Stock: 5, Activo: true})
	placeOrder(t, s, u.ID, sold.ID, 1)

	deactivated, err := s.DeleteProduct(ctx, sold.ID)
	require.NoError(t, err)
	assert.True(t, deactivated)
	got, err := s.ProductByID(ctx, sold.ID)
	require.NoError(t, err)
	assert.False(t, got.Activo)

	deactivated, err = s.DeleteProduct(ctx, unsold.ID)
	require.NoError(t, err)
	assert.False(t, deactivated)
	_, err = s.ProductByID(ctx, unsold.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.DeleteProduct(ctx, unsold.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "admin@example.com", store.RoleAdmin)
	u := seedUser(t, s, "stats@example.com", store.RoleCustomer)
	a := seedProduct(t, s, store.Product{SKU: "ST-A", Precio: 10, Stock: 20, Activo: true, Destacado: true})
	b := seedProduct(t, s, store.Product{SKU: "ST-B", Precio: 5, Stock: 3, Activo: true})
	seedProduct(t, s, store.Product{SKU: "ST-C", Precio: 5, Stock: 0, Activo: false})

	placeOrder(t, s, u.ID, a.ID, 4)
	o := placeOrder(t, s, u.ID, b.ID, 1)
	_, err := s.UpdateOrderStatus(ctx, o.ID, store.OrderCancelled)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalProductos)
	assert.Equal(t, 2, st.ProductosActivos)
	assert.Equal(t, 1, st.ProductosDestacados)
	assert.Equal(t, 1, st.ProductosSinStock)
	assert.Equal(t, 1, st.ProductosStockBajo)
	assert.Equal(t, 18, st.StockTotal)
	assert.Equal(t, 2, st.TotalPedidos)
	assert.Equal(t, 1, st.PedidosPendientes)
	assert.InDelta(t, 40.0, st.IngresosTotal, 0.001)
	assert.Equal(t, 2, st.TotalUsuarios)
	assert.Equal(t, 1, st.TotalAdmins)
	assert.Equal(t, 1, st.TotalClientes)
	require.NotEmpty(t, st.TopProductos)
	assert.Equal(t, a.ID, st.TopProductos[0].ID)
	assert.Equal(t, 4, st.TopProductos[0].UnidadesVendidas)
}

func testInquiry(t *testing.T, s store.Store) {
	q := &store.Inquiry{Nombre: "Juan", Email: "juan@example.com", Mensaje: "Hola, quería consultar"}
	require.NoError(t, s.CreateInquiry(context.Background(), q))
	assert.NotZero(t, q.ID)
	assert.False(t, q.FechaCreacion.IsZero())

	withSubject := &store.Inquiry{Nombre: "Ana", Email: "ana@example.com", Asunto: "Envíos", Mensaje: "¿Envían al interior?"}
	require.NoError(t, s.CreateInquiry(context.Background(), withSubject))
	assert.Greater(t, withSubject.ID, q.ID)
}
