package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

const (
	msgItemNotFound    = "Item no encontrado"
	msgProductInactive = "Producto no disponible"
	msgEmptyCart       = "El carrito está vacío"
)

// Cart mutation labels.
const (
	cartAdd    = "add"
	cartUpdate = "update"
	cartRemove = "remove"
	cartClear  = "clear"
)

// customer is the pipeline configuration shared by the cart and account routes.
func (s *Server) customer(cfg guard.Config) guard.Config {
	cfg.RequireAuth = true
	cfg.AllowedRoles = []string{auth.RoleCustomer}
	if cfg.RateLimit == nil {
		cfg.RateLimit = s.limits.API
	}
	return cfg
}

func (s *Server) recordCart(op string) {
	if s.metrics != nil {
		s.metrics.RecordCartMutation(op)
	}
}

// cartError maps store failures of cart mutations to client errors.
func cartError(err error) error {
	if msg, ok := stockMessage(err); ok {
		return guard.BadRequest(msg)
	}
	switch {
	case errors.Is(err, store.ErrInactive):
		return guard.BadRequest(msgProductInactive)
	case errors.Is(err, store.ErrNotFound):
		return guard.NotFound(msgProductNotFound)
	}
	return err
}

func (s *Server) cartRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: s.customer(guard.Config{}),
			Handle: s.handleGetCart,
		},
		http.MethodPost: {
			Config: s.customer(guard.Config{
				Schema:      validation.For[validation.CartAddRequest](),
				MaxBodySize: 1024,
			}),
			Handle: s.handleAddToCart,
		},
		http.MethodDelete: {
			Config: s.customer(guard.Config{}),
			Handle: s.handleClearCart,
		},
	})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	items, err := s.store.CartItems(r.Context(), c.User.ID)
	if err != nil {
		return err
	}
	var subtotal float64
	var count int
	for _, it := range items {
		subtotal += it.Producto.Precio * float64(it.Cantidad)
		count += it.Cantidad
	}
	return ok(w, http.StatusOK, map[string]any{
		"items":       items,
		"subtotal":    subtotal,
		"total_items": count,
	})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.CartAddRequest](c)
	total, err := s.store.AddToCart(r.Context(), c.User.ID, body.ProductoID, body.Quantity())
	if err != nil {
		return cartError(err)
	}
	s.recordCart(cartAdd)
	return ok(w, http.StatusOK, map[string]any{
		"mensaje":        "Producto agregado al carrito",
		"cantidad_total": total,
	})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	if err := s.store.ClearCart(r.Context(), c.User.ID); err != nil {
		return err
	}
	s.recordCart(cartClear)
	return ok(w, http.StatusOK, map[string]any{"mensaje": "Carrito vaciado"})
}

func (s *Server) cartItemRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPut: {
			Config: s.customer(guard.Config{
				Schema:      validation.For[validation.CartUpdateRequest](),
				MaxBodySize: 512,
			}),
			Handle: s.handleUpdateCartItem,
		},
		http.MethodDelete: {
			Config: s.customer(guard.Config{}),
			Handle: s.handleRemoveCartItem,
		},
	})
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	productID, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	body := guard.Body[validation.CartUpdateRequest](c)

	err = s.store.UpdateCartItem(r.Context(), c.User.ID, productID, body.Cantidad)
	if errors.Is(err, store.ErrNotFound) {
		return guard.NotFound(msgItemNotFound)
	}
	if err != nil {
		return cartError(err)
	}
	s.recordCart(cartUpdate)
	return ok(w, http.StatusOK, map[string]any{
		"mensaje":  "Cantidad actualizada",
		"cantidad": body.Cantidad,
	})
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	productID, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveCartItem(r.Context(), c.User.ID, productID); err != nil {
		return notFound(err, msgItemNotFound)
	}
	s.recordCart(cartRemove)
	return ok(w, http.StatusOK, map[string]any{"mensaje": "Producto eliminado del carrito"})
}

func (s *Server) checkoutRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: s.customer(guard.Config{
				Schema:      validation.For[validation.CheckoutRequest](),
				MaxBodySize: 2048,
			}),
			Handle: s.handleCheckout,
		},
	})
}

// handleCheckout is limited per user on top of the per-IP API limit.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	if rj := s.limits.Checkout.Check(r, strconv.FormatInt(c.User.ID, 10)); rj != nil {
		s.seclog.RateLimitExceeded(c.IP, r.URL.Path, c.UserAgent)
		rj.Write(w)
		return nil
	}

	body := guard.Body[validation.CheckoutRequest](c)
	order, err := s.store.Checkout(r.Context(), c.User.ID, store.CheckoutInput{
		NumeroPedido:   store.NewOrderNumber(),
		DireccionEnvio: body.DireccionEnvio,
		MetodoPago:     body.MetodoPago,
		Notas:          body.Notas,
	})
	if errors.Is(err, store.ErrEmptyCart) {
		return guard.BadRequest(msgEmptyCart)
	}
	if err != nil {
		return cartError(err)
	}

	s.seclog.DataModification(c.User.ID, c.User.Email, "pedido", "CREATE", order.ID, c.IP)
	if s.metrics != nil {
		s.metrics.RecordOrder(order.MetodoPago, order.Total)
	}
	return ok(w, http.StatusCreated, map[string]any{
		"mensaje": "Pedido creado exitosamente",
		"pedido":  order,
	})
}

func (s *Server) myOrdersRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: s.customer(guard.Config{}),
			Handle: s.handleMyOrders,
		},
	})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	orders, err := s.store.OrdersByUser(r.Context(), c.User.ID)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{"data": orders})
}
