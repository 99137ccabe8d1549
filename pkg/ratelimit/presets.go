package ratelimit

import "time"

// Preset limiter names.
const (
	NameLogin        = "login"
	NameRegistration = "registration"
	NameAPI          = "api"
	NameCheckout     = "checkout"
	NameUpload       = "upload"
	NameGlobal       = "global"
)

// LoginConfig allows 5 attempts per 15 minutes.
func LoginConfig() Config {
	return Config{
		Name:        NameLogin,
		Window:      15 * time.Minute,
		MaxRequests: 5,
		Message:     "Demasiados intentos de login. Intentá en 15 minutos.",
	}
}

// RegistrationConfig allows 3 sign-ups per hour.
func RegistrationConfig() Config {
	return Config{
		Name:        NameRegistration,
		Window:      time.Hour,
		MaxRequests: 3,
		Message:     "Demasiados registros desde esta IP. Intentá en 1 hora.",
	}
}

// APIConfig allows 60 requests per minute.
func APIConfig() Config {
	return Config{
		Name:        NameAPI,
		Window:      time.Minute,
		MaxRequests: 60,
		Message:     "Límite de solicitudes excedido. Intentá en 1 minuto.",
	}
}

// CheckoutConfig allows 3 purchase attempts per 5 minutes.
func CheckoutConfig() Config {
	return Config{
		Name:        NameCheckout,
		Window:      5 * time.Minute,
		MaxRequests: 3,
		Message:     "Demasiados intentos de compra. Intentá en 5 minutos.",
	}
}

// UploadConfig allows 10 uploads per minute.
func UploadConfig() Config {
	return Config{
		Name:        NameUpload,
		Window:      time.Minute,
		MaxRequests: 10,
		Message:     "Demasiadas subidas de archivos. Intentá en 1 minuto.",
	}
}

// GlobalConfig is the edge limiter applied to every API request. It shares
// the API budget but counts under its own name.
func GlobalConfig() Config {
	cfg := APIConfig()
	cfg.Name = NameGlobal
	return cfg
}

// Set holds the named limiters sharing one store.
type Set struct {
	Login        *Limiter
	Registration *Limiter
	API          *Limiter
	Checkout     *Limiter
	Upload       *Limiter
	Global       *Limiter
}

// NewSet builds every preset against store.
func NewSet(store Store, opts ...Option) *Set {
	return &Set{
		Login:        New(LoginConfig(), store, opts...),
		Registration: New(RegistrationConfig(), store, opts...),
		API:          New(APIConfig(), store, opts...),
		Checkout:     New(CheckoutConfig(), store, opts...),
		Upload:       New(UploadConfig(), store, opts...),
		Global:       New(GlobalConfig(), store, opts...),
	}
}
