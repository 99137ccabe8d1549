package api

import (
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/store"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

const (
	msgBadCredentials   = "Email o contraseña incorrectos"
	msgAccountDisabled  = "Tu cuenta está deshabilitada. Contactá soporte."
	msgEmailTaken       = "Email ya registrado"
	msgUserNotFound     = "Usuario no encontrado"
	msgUserGone         = "Usuario no encontrado o inactivo"
	reasonUnknownEmail  = "Usuario no encontrado"
	reasonWrongPassword = "Contraseña incorrecta"
	reasonDisabled      = "Cuenta deshabilitada"
)

func (s *Server) loginRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: guard.Config{
				Schema:      validation.For[validation.LoginRequest](),
				RateLimit:   s.limits.Login,
				MaxBodySize: 1024,
			},
			Handle: s.handleLogin,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.LoginRequest](c)

	u, err := s.store.UserByEmail(r.Context(), body.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.seclog.LoginFailure(body.Email, c.IP, reasonUnknownEmail, c.UserAgent)
		return guard.Errorf(http.StatusUnauthorized, msgBadCredentials)
	}
	if err != nil {
		return err
	}

	if !u.Activo {
		s.seclog.LoginFailure(body.Email, c.IP, reasonDisabled, c.UserAgent)
		return guard.Forbidden(msgAccountDisabled)
	}
	if !auth.CheckPassword(u.PasswordHash, body.Password) {
		s.seclog.LoginFailure(body.Email, c.IP, reasonWrongPassword, c.UserAgent)
		return guard.Errorf(http.StatusUnauthorized, msgBadCredentials)
	}

	if err := s.startSession(w, u); err != nil {
		return err
	}
	if err := s.store.TouchLastLogin(r.Context(), u.ID); err != nil {
		return err
	}
	s.seclog.LoginSuccess(u.ID, u.Email, c.IP, c.UserAgent)

	return ok(w, http.StatusOK, map[string]any{
		"mensaje": "Login exitoso",
		"usuario": u,
	})
}

// startSession signs a token for u and sets the session cookie.
func (s *Server) startSession(w http.ResponseWriter, u *store.User) error {
	token, err := s.tokens.Sign(auth.Identity{ID: u.ID, Email: u.Email, Role: u.Rol})
	if err != nil {
		return err
	}
	auth.SetTokenCookie(w, token, s.tokens.TTL(), s.secure)
	return nil
}

func (s *Server) registerRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: guard.Config{
				Schema:      validation.For[validation.RegisterRequest](),
				RateLimit:   s.limits.Registration,
				MaxBodySize: 2048,
			},
			Handle: s.handleRegister,
		},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.RegisterRequest](c)

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		return err
	}
	u := &store.User{
		Nombre:       body.Nombre,
		Apellido:     body.Apellido,
		Email:        body.Email,
		Telefono:     body.Telefono,
		PasswordHash: hash,
		Rol:          store.RoleCustomer,
		Activo:       true,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return guard.BadRequest(msgEmailTaken)
		}
		return err
	}

	if err := s.startSession(w, u); err != nil {
		return err
	}
	s.seclog.Register(u.ID, u.Email, c.IP)

	return ok(w, http.StatusCreated, map[string]any{
		"mensaje": "Registro exitoso",
		"usuario": u,
	})
}

func (s *Server) meRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {
			Config: guard.Config{RequireAuth: true, RateLimit: s.limits.API},
			Handle: s.handleMe,
		},
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	u, err := s.store.UserByID(r.Context(), c.User.ID)
	if err != nil {
		return notFound(err, msgUserGone)
	}
	if !u.Activo {
		return guard.NotFound(msgUserGone)
	}
	return ok(w, http.StatusOK, map[string]any{"usuario": u})
}

func (s *Server) logoutRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPost: {
			Config: guard.Config{RateLimit: s.limits.API, NoBody: true},
			Handle: s.handleLogout,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	if user := s.guard.Identify(r); user != nil {
		s.seclog.Logout(user.ID, user.Email, c.IP)
	}
	auth.ClearTokenCookie(w, s.secure)
	return ok(w, http.StatusOK, map[string]any{"mensaje": "Sesión cerrada exitosamente"})
}
