package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

const userColumns = `id, nombre, apellido, email, COALESCE(telefono, ''), password, rol,
	activo, email_verificado, fecha_registro, ultima_sesion`

func scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Nombre, &u.Apellido, &u.Email, &u.Telefono, &u.PasswordHash, &u.Rol,
		&u.Activo, &u.EmailVerificado, &u.FechaRegistro, &u.UltimaSesion)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	if u.Rol == "" {
		u.Rol = store.RoleCustomer
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usuario (nombre, apellido, email, telefono, password, rol, activo, email_verificado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, fecha_registro`,
		u.Nombre, u.Apellido, u.Email, nullString(u.Telefono), u.PasswordHash, u.Rol, u.Activo, u.EmailVerificado,
	).Scan(&u.ID, &u.FechaRegistro)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *Store) UserByID(ctx context.Context, id int64) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuario WHERE id = $1`, id))
}

func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM usuario ORDER BY fecha_registro DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []store.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) (*store.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE usuario SET
			nombre = $2, apellido = $3, email = $4, telefono = $5,
			rol = COALESCE(NULLIF($6, ''), rol),
			activo = COALESCE($7, activo),
			password = COALESCE(NULLIF($8, ''), password)
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.Nombre, upd.Apellido, upd.Email, nullString(upd.Telefono), upd.Rol, upd.Activo, upd.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM usuario WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE usuario SET ultima_sesion = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch last login %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateInquiry stores a contact message.
func (s *Store) CreateInquiry(ctx context.Context, q *store.Inquiry) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO consultas (nombre, email, asunto, mensaje)
		VALUES ($1, $2, $3, $4)
		RETURNING id, fecha_creacion`,
		q.Nombre, q.Email, nullString(q.Asunto), q.Mensaje,
	).Scan(&q.ID, &q.FechaCreacion)
	if err != nil {
		return fmt.Errorf("create inquiry: %w", translate(err))
	}
	return nil
}
