package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

func (s *Store) CartItems(ctx context.Context, userID int64) ([]store.CartItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.cantidad, c.fecha_agregado,
			p.id, p.nombre, p.slug, p.precio, p.precio_anterior, p.stock,
			COALESCE(p.imagen_url, ''), p.sku, p.activo
		FROM carrito c
		JOIN producto p ON p.id = c.producto_id
		WHERE c.usuario_id = $1 AND p.activo = TRUE
		ORDER BY c.fecha_agregado DESC, c.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	items := []store.CartItem{}
	for rows.Next() {
		var it store.CartItem
		p := &it.Producto
		if err := rows.Scan(&it.ID, &it.Cantidad, &it.FechaAgregado,
			&p.ID, &p.Nombre, &p.Slug, &p.Precio, &p.PrecioAnterior, &p.Stock,
			&p.ImagenURL, &p.SKU, &p.Activo); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// lockProduct reads stock and state under a row lock.
func lockProduct(ctx context.Context, tx pgx.Tx, productID int64) (stock int, active bool, err error) {
	err = tx.QueryRow(ctx, `SELECT stock, activo FROM producto WHERE id = $1 FOR UPDATE`, productID).
		Scan(&stock, &active)
	return stock, active, translate(err)
}

func (s *Store) AddToCart(ctx context.Context, userID, productID int64, qty int) (int, error) {
	var total int
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		stock, active, err := lockProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !active {
			return store.ErrInactive
		}

		var existing int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(cantidad), 0) FROM carrito WHERE usuario_id = $1 AND producto_id = $2`,
			userID, productID).Scan(&existing)
		if err != nil {
			return err
		}
		if stock < existing+qty {
			return &store.StockError{ProductID: productID, Available: stock}
		}

		return tx.QueryRow(ctx, `
			INSERT INTO carrito (usuario_id, producto_id, cantidad)
			VALUES ($1, $2, $3)
			ON CONFLICT (usuario_id, producto_id)
			DO UPDATE SET cantidad = carrito.cantidad + EXCLUDED.cantidad, fecha_actualizacion = NOW()
			RETURNING cantidad`, userID, productID, qty).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("add to cart: %w", err)
	}
	return total, nil
}

func (s *Store) UpdateCartItem(ctx context.Context, userID, productID int64, qty int) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var lineID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM carrito WHERE usuario_id = $1 AND producto_id = $2 FOR UPDATE`,
			userID, productID).Scan(&lineID)
		if err != nil {
			return translate(err)
		}

		stock, _, err := lockProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if stock < qty {
			return &store.StockError{ProductID: productID, Available: stock}
		}

		_, err = tx.Exec(ctx,
			`UPDATE carrito SET cantidad = $2, fecha_actualizacion = NOW() WHERE id = $1`, lineID, qty)
		return err
	})
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, productID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM carrito WHERE usuario_id = $1 AND producto_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM carrito WHERE usuario_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
