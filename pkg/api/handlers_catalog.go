package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

// Catalog paging bounds.
const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 1000
	maxSearchLength = 100
)

const (
	msgProductNotFound = "Producto no encontrado"
	msgInvalidSlug     = "Formato de slug inválido"
	msgInvalidProduct  = "ID de producto inválido"
)

// productFilter reads catalog query parameters. Invalid values fall back to
// their defaults. A search term that looks like an injection is rejected.
func (s *Server) productFilter(r *http.Request, c *guard.Context) (store.ProductFilter, error) {
	q := r.URL.Query()
	f := store.ProductFilter{
		CategoriaSlug: security.SanitizeSlug(q.Get("categoria")),
		SoloStock:     q.Get("soloStock") == "true",
		Destacado:     q.Get("destacado") == "true",
		Ordenar:       q.Get("ordenar"),
		Limit:         queryInt(r, "limit", defaultPageSize, 1, maxPageSize),
		Page:          queryInt(r, "page", 1, 1, maxPage),
	}

	if raw := strings.TrimSpace(q.Get("busqueda")); raw != "" {
		if kinds := security.Classify(s.detector, raw); len(kinds) > 0 {
			if kinds[0] == security.ThreatSQLInjection {
				s.seclog.SQLInjectionAttempt(c.IP, raw, r.URL.Path)
			} else {
				s.seclog.XSSAttempt(c.IP, raw, r.URL.Path)
			}
			return f, guard.BadRequest(guard.MsgSuspiciousInput)
		}
		f.Busqueda = security.SanitizeString(raw)
		if len([]rune(f.Busqueda)) > maxSearchLength {
			f.Busqueda = string([]rune(f.Busqueda)[:maxSearchLength])
		}
	}

	if v := security.SanitizeNumber(q.Get("precioMin")); v != nil && *v >= 0 {
		f.PrecioMin = v
	}
	if v := security.SanitizeNumber(q.Get("precioMax")); v != nil && *v >= 0 {
		f.PrecioMax = v
	}

	switch f.Ordenar {
	case store.SortRecent, store.SortPriceAsc, store.SortPriceDesc,
		store.SortNameAsc, store.SortNameDesc, store.SortPopular:
	default:
		f.Ordenar = store.SortRecent
	}
	return f, nil
}

func (s *Server) productsRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: guard.Config{RateLimit: s.limits.API},
			Handle: s.handleListProducts,
		},
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	f, err := s.productFilter(r, c)
	if err != nil {
		return err
	}
	products, total, err := s.store.ListProducts(r.Context(), f)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{
		"data": products,
		"pagination": map[string]int{
			"page":       f.Page,
			"limit":      f.Limit,
			"total":      total,
			"totalPages": totalPages(total, f.Limit),
		},
	})
}

// productView adds the derived storefront fields.
type productView struct {
	*store.Product
	EstadoStock string `json:"estado_stock"`
	Descuento   int    `json:"descuento,omitempty"`
}

func viewProduct(p *store.Product) productView {
	return productView{Product: p, EstadoStock: p.StockState(), Descuento: p.DiscountPercent()}
}

func (s *Server) productRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: guard.Config{RateLimit: s.limits.API},
			Handle: s.handleGetProduct,
		},
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	slug := chi.URLParam(r, "slug")
	if !security.IsValidSlug(slug) {
		return &guard.HTTPError{
			Status:  http.StatusBadRequest,
			Message: msgInvalidSlug,
			Errors:  validation.FieldErrors{"slug": {"Slug inválido"}},
		}
	}

	p, err := s.store.ProductBySlug(r.Context(), slug)
	if err != nil {
		return notFound(err, msgProductNotFound)
	}
	if err := s.store.IncrementViews(r.Context(), p.ID); err != nil {
		return err
	}
	p.Vistas++

	return ok(w, http.StatusOK, map[string]any{
		"data":      viewProduct(p),
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) categoriesRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: guard.Config{RateLimit: s.limits.API},
			Handle: s.handleListCategories,
		},
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{"data": cats})
}

func (s *Server) inquiriesRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: guard.Config{
				Schema:      validation.For[validation.ContactRequest](),
				RateLimit:   s.limits.API,
				MaxBodySize: 4096,
			},
			Handle: s.handleCreateInquiry,
		},
	})
}

func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.ContactRequest](c)
	q := &store.Inquiry{
		Nombre:  body.Nombre,
		Email:   body.Email,
		Asunto:  body.Asunto,
		Mensaje: body.Mensaje,
	}
	if err := s.store.CreateInquiry(r.Context(), q); err != nil {
		return err
	}
	return ok(w, http.StatusCreated, map[string]any{
		"mensaje": "Consulta enviada correctamente",
		"data":    q,
	})
}
