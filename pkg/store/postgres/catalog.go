package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

const productColumns = `p.id, p.nombre, p.slug, COALESCE(p.descripcion, ''), COALESCE(p.descripcion_corta, ''),
	p.precio, p.precio_anterior, p.stock, p.categoria_id, COALESCE(p.imagen_url, ''), p.sku, p.peso_gramos,
	p.destacado, p.activo, p.fecha_creacion, p.fecha_actualizacion, p.vistas, p.ventas,
	c.id, c.nombre, c.slug`

const productFrom = ` FROM producto p LEFT JOIN categoria c ON c.id = p.categoria_id`

// orderBy is keyed by ProductFilter.Ordenar; unknown values fall back to recent.
var orderBy = map[string]string{
	store.SortRecent:    "p.fecha_creacion DESC",
	store.SortPriceAsc:  "p.precio ASC",
	store.SortPriceDesc: "p.precio DESC",
	store.SortNameAsc:   "p.nombre ASC",
	store.SortNameDesc:  "p.nombre DESC",
	store.SortPopular:   "p.ventas DESC",
}

func scanProduct(row pgx.Row) (*store.Product, error) {
	var (
		p       store.Product
		catID   *int64
		catName *string
		catSlug *string
	)
	err := row.Scan(&p.ID, &p.Nombre, &p.Slug, &p.Descripcion, &p.DescripcionCorta,
		&p.Precio, &p.PrecioAnterior, &p.Stock, &p.CategoriaID, &p.ImagenURL, &p.SKU, &p.PesoGramos,
		&p.Destacado, &p.Activo, &p.FechaCreacion, &p.FechaActualizacion, &p.Vistas, &p.Ventas,
		&catID, &catName, &catSlug)
	if err != nil {
		return nil, translate(err)
	}
	if catID != nil {
		p.Categoria = &store.Category{ID: *catID, Nombre: *catName, Slug: *catSlug}
	}
	return &p, nil
}

// where accumulates numbered predicates.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func productWhere(f store.ProductFilter) *where {
	w := &where{}
	if !f.IncludeInactive {
		w.add("p.activo = TRUE")
	}
	if f.CategoriaSlug != "" {
		w.add("c.slug = ?", f.CategoriaSlug)
	}
	if f.Busqueda != "" {
		w.add("(p.nombre ILIKE ? OR p.descripcion ILIKE ? OR p.descripcion_corta ILIKE ? OR p.sku ILIKE ?)",
			"%"+f.Busqueda+"%", "%"+f.Busqueda+"%", "%"+f.Busqueda+"%", "%"+f.Busqueda+"%")
	}
	if f.PrecioMin != nil {
		w.add("p.precio >= ?", *f.PrecioMin)
	}
	if f.PrecioMax != nil {
		w.add("p.precio <= ?", *f.PrecioMax)
	}
	if f.SoloStock {
		w.add("p.stock > 0")
	}
	if f.Destacado {
		w.add("p.destacado = TRUE")
	}
	return w
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]store.Product, int, error) {
	w := productWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*)`+productFrom+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order, ok := orderBy[f.Ordenar]
	if !ok {
		order = orderBy[store.SortRecent]
	}
	query := `SELECT ` + productColumns + productFrom + w.String() + ` ORDER BY ` + order + `, p.id DESC`
	args := w.args
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []store.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (s *Store) ProductBySlug(ctx context.Context, slug string) (*store.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+productFrom+` WHERE p.slug = $1 AND p.activo = TRUE`, slug))
}

func (s *Store) ProductByID(ctx context.Context, id int64) (*store.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, id))
}

func (s *Store) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM producto WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *store.Product) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO producto (nombre, slug, descripcion, descripcion_corta, precio, precio_anterior, stock,
			categoria_id, imagen_url, sku, peso_gramos, destacado, activo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, fecha_creacion, fecha_actualizacion`,
		p.Nombre, p.Slug, nullString(p.Descripcion), nullString(p.DescripcionCorta), p.Precio, p.PrecioAnterior,
		p.Stock, p.CategoriaID, nullString(p.ImagenURL), p.SKU, p.PesoGramos, p.Destacado, p.Activo,
	).Scan(&p.ID, &p.FechaCreacion, &p.FechaActualizacion)
	if err != nil {
		return fmt.Errorf("create product: %w", translate(err))
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *store.Product) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE producto SET
			nombre = $2, slug = $3, descripcion = $4, descripcion_corta = $5, precio = $6,
			precio_anterior = $7, stock = $8, categoria_id = $9, imagen_url = $10, sku = $11,
			peso_gramos = $12, destacado = $13, activo = $14, fecha_actualizacion = NOW()
		WHERE id = $1
		RETURNING fecha_creacion, fecha_actualizacion, vistas, ventas`,
		p.ID, p.Nombre, p.Slug, nullString(p.Descripcion), nullString(p.DescripcionCorta), p.Precio,
		p.PrecioAnterior, p.Stock, p.CategoriaID, nullString(p.ImagenURL), p.SKU,
		p.PesoGramos, p.Destacado, p.Activo,
	).Scan(&p.FechaCreacion, &p.FechaActualizacion, &p.Vistas, &p.Ventas)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, translate(err))
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	var deactivated bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM detalle_pedido WHERE producto_id = $1)
			FROM producto WHERE id = $1 FOR UPDATE`, id).Scan(&referenced)
		if err != nil {
			return translate(err)
		}
		if referenced {
			deactivated = true
			_, err = tx.Exec(ctx, `UPDATE producto SET activo = FALSE, fecha_actualizacion = NOW() WHERE id = $1`, id)
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM producto WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}
	return deactivated, nil
}

func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE producto SET vistas = vistas + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c *store.Category) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categoria (nombre, slug, descripcion) VALUES ($1, $2, $3) RETURNING id`,
		c.Nombre, c.Slug, nullString(c.Descripcion)).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create category: %w", translate(err))
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]store.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nombre, slug, COALESCE(descripcion, '') FROM categoria ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []store.Category{}
	for rows.Next() {
		var c store.Category
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Slug, &c.Descripcion); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
