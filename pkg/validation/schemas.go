package validation

import "github.com/dd0wney/cluso-shop/pkg/security"

// Order states and payment methods.
var (
	OrderStates    = []string{"pendiente", "procesando", "enviado", "entregado", "cancelado"}
	PaymentMethods = []string{"mercadopago", "transferencia", "efectivo"}
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=100"`
}

func (r *LoginRequest) Normalize() {
	r.Email = security.SanitizeEmail(r.Email)
}

type RegisterRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=100"`
	Apellido string `json:"apellido" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Telefono string `json:"telefono" validate:"omitempty,min=8,max=20"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = security.SanitizeEmail(r.Email)
	r.Telefono = security.SanitizePhoneNumber(r.Telefono)
}

type CartAddRequest struct {
	ProductoID int64 `json:"producto_id" validate:"required,gt=0"`
	Cantidad   *int  `json:"cantidad" validate:"omitempty,min=1,max=100"`
}

// Quantity returns the requested amount, defaulting to 1.
func (r *CartAddRequest) Quantity() int {
	if r.Cantidad == nil {
		return 1
	}
	return *r.Cantidad
}

type CartUpdateRequest struct {
	Cantidad int `json:"cantidad" validate:"required,min=1,max=100"`
}

type CheckoutRequest struct {
	DireccionEnvio string `json:"direccion_envio" validate:"required,min=5,max=500"`
	MetodoPago     string `json:"metodo_pago" validate:"required,oneof=mercadopago transferencia efectivo"`
	Notas          string `json:"notas" validate:"omitempty,max=500"`
}

// ProductRequest is shared by create and update.
type ProductRequest struct {
	Nombre           string   `json:"nombre" validate:"required,min=2,max=200"`
	Descripcion      string   `json:"descripcion" validate:"omitempty,max=5000"`
	DescripcionCorta string   `json:"descripcion_corta" validate:"omitempty,max=500"`
	Precio           float64  `json:"precio" validate:"required,gt=0"`
	PrecioAnterior   *float64 `json:"precio_anterior" validate:"omitempty,gt=0"`
	Stock            *int     `json:"stock" validate:"required,min=0"`
	CategoriaID      int64    `json:"categoria_id" validate:"required,gt=0"`
	ImagenURL        string   `json:"imagen_url" validate:"omitempty,max=500,imageurl"`
	SKU              string   `json:"sku" validate:"required,min=1,max=50"`
	PesoGramos       *int     `json:"peso_gramos" validate:"omitempty,gt=0"`
	Destacado        bool     `json:"destacado"`
	Activo           *bool    `json:"activo"`
}

// IsActive defaults to true when activo was omitted.
func (r *ProductRequest) IsActive() bool {
	return r.Activo == nil || *r.Activo
}

type OrderUpdateRequest struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente procesando enviado entregado cancelado"`
}

type UserCreateRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=100"`
	Apellido string `json:"apellido" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Telefono string `json:"telefono" validate:"omitempty,min=8,max=20"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Rol      string `json:"rol" validate:"required,oneof=admin customer"`
}

func (r *UserCreateRequest) Normalize() {
	r.Email = security.SanitizeEmail(r.Email)
	r.Telefono = security.SanitizePhoneNumber(r.Telefono)
}

type UserUpdateRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=100"`
	Apellido string `json:"apellido" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Telefono string `json:"telefono" validate:"omitempty,min=8,max=20"`
	Password string `json:"password" validate:"omitempty,min=6,max=100"`
	Rol      string `json:"rol" validate:"required,oneof=admin customer"`
	Activo   *bool  `json:"activo"`
}

func (r *UserUpdateRequest) Normalize() {
	r.Email = security.SanitizeEmail(r.Email)
	r.Telefono = security.SanitizePhoneNumber(r.Telefono)
}

type ContactRequest struct {
	Nombre  string `json:"nombre" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Asunto  string `json:"asunto" validate:"omitempty,max=200"`
	Mensaje string `json:"mensaje" validate:"required,min=10,max=2000"`
}

func (r *ContactRequest) Normalize() {
	r.Email = security.SanitizeEmail(r.Email)
}
