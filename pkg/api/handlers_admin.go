package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

const (
	msgSKUTaken        = "El SKU ya existe"
	msgBadProductName  = "El nombre no permite generar un slug válido"
	msgOrderNotFound   = "Pedido no encontrado"
	msgOrderLocked     = "Solo se pueden eliminar pedidos pendientes o cancelados"
	msgInvalidState    = "Estado de pedido inválido"
	msgCategoryMissing = "La categoría no existe"
)

// admin is the pipeline configuration shared by every admin route.
func (s *Server) admin(cfg guard.Config) guard.Config {
	cfg.RequireAuth = true
	cfg.AllowedRoles = []string{auth.RoleAdmin}
	if cfg.RateLimit == nil {
		cfg.RateLimit = s.limits.API
	}
	return cfg
}

func (s *Server) audit(c *guard.Context, entity, action string, id int64) {
	s.seclog.DataModification(c.User.ID, c.User.Email, entity, action, id, c.IP)
}

func (s *Server) statsRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleStats},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{
		"data":         stats,
		"last_updated": s.now().UTC().Format(time.RFC3339),
	})
}

// --- products ---

func (s *Server) adminProductsRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleAdminListProducts},
		http.MethodPost: {
			Config: s.admin(guard.Config{
				Schema:      validation.For[validation.ProductRequest](),
				MaxBodySize: 10240,
				HTMLFields:  []string{"descripcion"},
			}),
			Handle: s.handleCreateProduct,
		},
	})
}

func (s *Server) handleAdminListProducts(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	f, err := s.productFilter(r, c)
	if err != nil {
		return err
	}
	f.IncludeInactive = true
	products, total, err := s.store.ListProducts(r.Context(), f)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{
		"data":  products,
		"total": total,
		"pagination": map[string]int{
			"page":       f.Page,
			"limit":      f.Limit,
			"total":      total,
			"totalPages": totalPages(total, f.Limit),
		},
	})
}

// slugFor returns a free slug for name, ignoring the product excludeID.
func (s *Server) slugFor(ctx context.Context, name string, excludeID int64) (string, error) {
	if security.GenerateSlug(name) == "" {
		return "", guard.BadRequest(msgBadProductName)
	}
	return security.UniqueSlug(ctx, name, func(ctx context.Context, slug string) (bool, error) {
		return s.store.SlugExists(ctx, slug, excludeID)
	})
}

// checkCategory rejects a category id that does not exist.
func (s *Server) checkCategory(ctx context.Context, id int64) error {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if c.ID == id {
			return nil
		}
	}
	return guard.BadRequest(msgCategoryMissing)
}

// applyProduct copies the request onto p.
func applyProduct(p *store.Product, req *validation.ProductRequest) {
	catID := req.CategoriaID
	p.Nombre = req.Nombre
	p.Descripcion = req.Descripcion
	p.DescripcionCorta = req.DescripcionCorta
	p.Precio = req.Precio
	p.PrecioAnterior = req.PrecioAnterior
	p.Stock = *req.Stock
	p.CategoriaID = &catID
	p.ImagenURL = req.ImagenURL
	p.SKU = req.SKU
	p.PesoGramos = req.PesoGramos
	p.Destacado = req.Destacado
	p.Activo = req.IsActive()
}

// productWriteError maps store failures of product writes to client errors.
func productWriteError(err error) error {
	var ce *store.ConflictError
	if errors.As(err, &ce) && ce.Field == "sku" {
		return guard.BadRequest(msgSKUTaken)
	}
	if errors.Is(err, store.ErrConflict) {
		return guard.BadRequest(err.Error())
	}
	return notFound(err, msgProductNotFound)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.ProductRequest](c)
	if err := s.checkCategory(r.Context(), body.CategoriaID); err != nil {
		return err
	}
	slug, err := s.slugFor(r.Context(), body.Nombre, 0)
	if err != nil {
		return err
	}

	p := &store.Product{Slug: slug}
	applyProduct(p, body)
	if err := s.store.CreateProduct(r.Context(), p); err != nil {
		return productWriteError(err)
	}
	s.audit(c, "producto", "CREATE", p.ID)
	return ok(w, http.StatusCreated, map[string]any{
		"mensaje": "Producto creado correctamente",
		"data":    p,
	})
}

func (s *Server) adminProductRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleAdminGetProduct},
		http.MethodPut: {
			Config: s.admin(guard.Config{
				Schema:      validation.For[validation.ProductRequest](),
				MaxBodySize: 10240,
				HTMLFields:  []string{"descripcion"},
			}),
			Handle: s.handleUpdateProduct,
		},
		http.MethodDelete: {Config: s.admin(guard.Config{}), Handle: s.handleDeleteProduct},
	})
}

func (s *Server) handleAdminGetProduct(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", msgInvalidProduct)
	if err != nil {
		return err
	}
	p, err := s.store.ProductByID(r.Context(), id)
	if err != nil {
		return notFound(err, msgProductNotFound)
	}
	return ok(w, http.StatusOK, map[string]any{"data": viewProduct(p)})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", msgInvalidProduct)
	if err != nil {
		return err
	}
	body := guard.Body[validation.ProductRequest](c)

	p, err := s.store.ProductByID(r.Context(), id)
	if err != nil {
		return notFound(err, msgProductNotFound)
	}
	if err := s.checkCategory(r.Context(), body.CategoriaID); err != nil {
		return err
	}
	if p.Nombre != body.Nombre {
		slug, err := s.slugFor(r.Context(), body.Nombre, id)
		if err != nil {
			return err
		}
		p.Slug = slug
	}

	applyProduct(p, body)
	if err := s.store.UpdateProduct(r.Context(), p); err != nil {
		return productWriteError(err)
	}
	s.audit(c, "producto", "UPDATE", id)
	return ok(w, http.StatusOK, map[string]any{
		"message": "Producto actualizado correctamente",
		"data":    p,
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", msgInvalidProduct)
	if err != nil {
		return err
	}
	deactivated, err := s.store.DeleteProduct(r.Context(), id)
	if err != nil {
		return notFound(err, msgProductNotFound)
	}
	if deactivated {
		s.audit(c, "producto", "DEACTIVATE", id)
		return ok(w, http.StatusOK, map[string]any{
			"message":     "El producto tiene pedidos asociados y fue desactivado en lugar de eliminarse",
			"desactivado": true,
		})
	}
	s.audit(c, "producto", "DELETE", id)
	return ok(w, http.StatusOK, map[string]any{
		"message":   "Producto eliminado correctamente",
		"eliminado": true,
	})
}

// --- orders ---

func (s *Server) adminOrdersRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleAdminListOrders},
	})
}

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	estado := r.URL.Query().Get("estado")
	if estado != "" && !slices.Contains(validation.OrderStates, estado) {
		return guard.BadRequest(msgInvalidState)
	}
	orders, err := s.store.ListOrders(r.Context(), estado)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{"data": orders, "total": len(orders)})
}

func (s *Server) adminOrderRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleAdminGetOrder},
		http.MethodPut: {
			Config: s.admin(guard.Config{
				Schema:      validation.For[validation.OrderUpdateRequest](),
				MaxBodySize: 512,
			}),
			Handle: s.handleUpdateOrder,
		},
		http.MethodDelete: {Config: s.admin(guard.Config{}), Handle: s.handleDeleteOrder},
	})
}

func (s *Server) handleAdminGetOrder(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	o, err := s.store.OrderByID(r.Context(), id)
	if err != nil {
		return notFound(err, msgOrderNotFound)
	}
	return ok(w, http.StatusOK, map[string]any{"data": o})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	body := guard.Body[validation.OrderUpdateRequest](c)
	o, err := s.store.UpdateOrderStatus(r.Context(), id, body.Estado)
	if err != nil {
		return notFound(err, msgOrderNotFound)
	}
	s.audit(c, "pedido", "UPDATE", id)
	return ok(w, http.StatusOK, map[string]any{
		"message": "Estado actualizado correctamente",
		"pedido":  o,
	})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	err = s.store.DeleteOrder(r.Context(), id)
	if errors.Is(err, store.ErrOrderLocked) {
		return guard.BadRequest(msgOrderLocked)
	}
	if err != nil {
		return notFound(err, msgOrderNotFound)
	}
	s.audit(c, "pedido", "DELETE", id)
	return ok(w, http.StatusOK, map[string]any{"message": "Pedido eliminado y stock restaurado"})
}
