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
	msgSelfDelete = "No podés eliminar tu propia cuenta"
	msgSelfDemote = "No podés quitarte el rol de administrador ni desactivar tu cuenta"
)

func (s *Server) usersRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodGet: {Config: s.admin(guard.Config{}), Handle: s.handleListUsers},
		http.MethodPost: {
			Config: s.admin(guard.Config{
				Schema:      validation.For[validation.UserCreateRequest](),
				MaxBodySize: 2048,
			}),
			Handle: s.handleCreateUser,
		},
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, map[string]any{"data": users})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	body := guard.Body[validation.UserCreateRequest](c)
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
		Rol:          body.Rol,
		Activo:       true,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return guard.BadRequest(msgEmailTaken)
		}
		return err
	}
	s.audit(c, "usuario", "CREATE", u.ID)
	return ok(w, http.StatusCreated, map[string]any{"data": u})
}

func (s *Server) userRoute() http.Handler {
	return s.guard.Route(map[string]guard.Endpoint{
		http.MethodPut: {
			Config: s.admin(guard.Config{
				Schema:      validation.For[validation.UserUpdateRequest](),
				MaxBodySize: 2048,
			}),
			Handle: s.handleUpdateUser,
		},
		http.MethodDelete: {Config: s.admin(guard.Config{}), Handle: s.handleDeleteUser},
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	body := guard.Body[validation.UserUpdateRequest](c)
	if id == c.User.ID && (body.Rol != auth.RoleAdmin || (body.Activo != nil && !*body.Activo)) {
		return guard.BadRequest(msgSelfDemote)
	}

	upd := store.UserUpdate{
		Nombre:   body.Nombre,
		Apellido: body.Apellido,
		Email:    body.Email,
		Telefono: body.Telefono,
		Rol:      body.Rol,
		Activo:   body.Activo,
	}
	if body.Password != "" {
		if upd.PasswordHash, err = auth.HashPassword(body.Password); err != nil {
			return err
		}
	}

	u, err := s.store.UpdateUser(r.Context(), id, upd)
	if errors.Is(err, store.ErrConflict) {
		return guard.BadRequest(msgEmailTaken)
	}
	if err != nil {
		return notFound(err, msgUserNotFound)
	}

	s.audit(c, "usuario", "UPDATE", id)
	if upd.PasswordHash != "" {
		s.seclog.PasswordChange(u.ID, u.Email, c.IP)
	}
	return ok(w, http.StatusOK, map[string]any{"data": u})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, c *guard.Context) error {
	id, err := pathID(r, "id", MsgInvalidID)
	if err != nil {
		return err
	}
	if id == c.User.ID {
		return guard.BadRequest(msgSelfDelete)
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		return notFound(err, msgUserNotFound)
	}
	s.audit(c, "usuario", "DELETE", id)
	return ok(w, http.StatusOK, map[string]any{"message": "Usuario eliminado exitosamente"})
}
