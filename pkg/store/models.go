package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles stored on users. They match the auth package roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Order states.
const (
	OrderPending    = "pendiente"
	OrderProcessing = "procesando"
	OrderShipped    = "enviado"
	OrderDelivered  = "entregado"
	OrderCancelled  = "cancelado"
)

// LowStockThreshold is the stock at or below which a product is "stock_bajo".
const LowStockThreshold = 5

type User struct {
	ID              int64      `json:"id"`
	Nombre          string     `json:"nombre"`
	Apellido        string     `json:"apellido"`
	Email           string     `json:"email"`
	Telefono        string     `json:"telefono,omitempty"`
	PasswordHash    string     `json:"-"`
	Rol             string     `json:"rol"`
	Activo          bool       `json:"activo"`
	EmailVerificado bool       `json:"email_verificado"`
	FechaRegistro   time.Time  `json:"fecha_registro"`
	UltimaSesion    *time.Time `json:"ultima_sesion,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Slug        string `json:"slug"`
	Descripcion string `json:"descripcion,omitempty"`
}

type Product struct {
	ID                 int64     `json:"id"`
	Nombre             string    `json:"nombre"`
	Slug               string    `json:"slug"`
	Descripcion        string    `json:"descripcion,omitempty"`
	DescripcionCorta   string    `json:"descripcion_corta,omitempty"`
	Precio             float64   `json:"precio"`
	PrecioAnterior     *float64  `json:"precio_anterior"`
	Stock              int       `json:"stock"`
	CategoriaID        *int64    `json:"categoria_id"`
	ImagenURL          string    `json:"imagen_url,omitempty"`
	SKU                string    `json:"sku"`
	PesoGramos         *int      `json:"peso_gramos,omitempty"`
	Destacado          bool      `json:"destacado"`
	Activo             bool      `json:"activo"`
	FechaCreacion      time.Time `json:"fecha_creacion"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
	Vistas             int       `json:"vistas"`
	Ventas             int       `json:"ventas"`
	Categoria          *Category `json:"categoria"`
}

// StockState classifies Stock as sin_stock, stock_bajo or disponible.
func (p *Product) StockState() string {
	switch {
	case p.Stock <= 0:
		return "sin_stock"
	case p.Stock <= LowStockThreshold:
		return "stock_bajo"
	default:
		return "disponible"
	}
}

// DiscountPercent is the rounded markdown from PrecioAnterior, or 0.
func (p *Product) DiscountPercent() int {
	if p.PrecioAnterior == nil || *p.PrecioAnterior <= p.Precio || *p.PrecioAnterior == 0 {
		return 0
	}
	return int((*p.PrecioAnterior-p.Precio)/(*p.PrecioAnterior)*100 + 0.5)
}

// Sort orders accepted by ProductFilter.
const (
	SortRecent    = "reciente"
	SortPriceAsc  = "precio_asc"
	SortPriceDesc = "precio_desc"
	SortNameAsc   = "nombre_asc"
	SortNameDesc  = "nombre_desc"
	SortPopular   = "popular"
)

// ProductFilter selects catalog pages. Zero values mean "no filter".
type ProductFilter struct {
	CategoriaSlug   string
	Busqueda        string
	PrecioMin       *float64
	PrecioMax       *float64
	SoloStock       bool
	Destacado       bool
	Ordenar         string
	Limit           int
	Page            int
	IncludeInactive bool
}

// Offset returns the row offset of the requested page.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type CartProduct struct {
	ID             int64    `json:"id"`
	Nombre         string   `json:"nombre"`
	Slug           string   `json:"slug"`
	Precio         float64  `json:"precio"`
	PrecioAnterior *float64 `json:"precio_anterior"`
	Stock          int      `json:"stock"`
	ImagenURL      string   `json:"imagen_url,omitempty"`
	SKU            string   `json:"sku"`
	Activo         bool     `json:"activo"`
}

type CartItem struct {
	ID            int64       `json:"id"`
	Producto      CartProduct `json:"producto"`
	Cantidad      int         `json:"cantidad"`
	FechaAgregado time.Time   `json:"fecha_agregado"`
}

type OrderItem struct {
	ID             int64   `json:"id"`
	ProductoID     *int64  `json:"producto_id"`
	NombreProducto string  `json:"nombre_producto"`
	SKU            string  `json:"sku"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
}

type Order struct {
	ID             int64       `json:"id"`
	NumeroPedido   string      `json:"numero_pedido"`
	UsuarioID      *int64      `json:"usuario_id"`
	UsuarioNombre  string      `json:"usuario_nombre,omitempty"`
	UsuarioEmail   string      `json:"usuario_email,omitempty"`
	Estado         string      `json:"estado"`
	Subtotal       float64     `json:"subtotal"`
	Descuento      float64     `json:"descuento"`
	CostoEnvio     float64     `json:"costo_envio"`
	Total          float64     `json:"total"`
	MetodoPago     string      `json:"metodo_pago"`
	DireccionEnvio string      `json:"direccion_envio"`
	Notas          string      `json:"notas,omitempty"`
	FechaPedido    time.Time   `json:"fecha_pedido"`
	FechaProcesado *time.Time  `json:"fecha_procesado"`
	FechaEnviado   *time.Time  `json:"fecha_enviado"`
	FechaEntregado *time.Time  `json:"fecha_entregado"`
	Items          []OrderItem `json:"items"`
}

// Deletable reports whether the order may be removed.
func (o *Order) Deletable() bool {
	return o.Estado == OrderPending || o.Estado == OrderCancelled
}

// CheckoutInput is what the customer supplies at checkout.
type CheckoutInput struct {
	NumeroPedido   string
	DireccionEnvio string
	MetodoPago     string
	Notas          string
}

// NewOrderNumber returns a human-friendly order number, PED-XXXXXXXX.
func NewOrderNumber() string {
	return "PED-" + strings.ToUpper(uuid.NewString()[:8])
}

type Inquiry struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	Asunto        string    `json:"asunto,omitempty"`
	Mensaje       string    `json:"mensaje"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

type TopProduct struct {
	ID               int64   `json:"id"`
	Nombre           string  `json:"nombre"`
	Slug             string  `json:"slug"`
	ImagenURL        string  `json:"imagen_url,omitempty"`
	VecesVendido     int     `json:"veces_vendido"`
	UnidadesVendidas int     `json:"unidades_vendidas"`
	IngresosTotales  float64 `json:"ingresos_totales"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProductos      int          `json:"total_productos"`
	ProductosActivos    int          `json:"productos_activos"`
	ProductosDestacados int          `json:"productos_destacados"`
	ProductosSinStock   int          `json:"productos_sin_stock"`
	ProductosStockBajo  int          `json:"productos_stock_bajo"`
	StockTotal          int          `json:"stock_total"`
	TotalPedidos        int          `json:"total_pedidos"`
	PedidosPendientes   int          `json:"pedidos_pendientes"`
	PedidosProcesando   int          `json:"pedidos_procesando"`
	PedidosEnviados     int          `json:"pedidos_enviados"`
	PedidosEntregados   int          `json:"pedidos_entregados"`
	IngresosTotal       float64      `json:"ingresos_total"`
	TotalUsuarios       int          `json:"total_usuarios"`
	TotalAdmins         int          `json:"total_admins"`
	TotalClientes       int          `json:"total_clientes"`
	UsuariosActivos     int          `json:"usuarios_activos"`
	TopProductos        []TopProduct `json:"top_productos"`
}

// UserUpdate carries editable user fields. An empty PasswordHash keeps the current one.
type UserUpdate struct {
	Nombre       string
	Apellido     string
	Email        string
	Telefono     string
	Rol          string
	Activo       *bool
	PasswordHash string
}
