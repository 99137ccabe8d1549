package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

const orderColumns = `o.id, o.numero_pedido, o.usuario_id,
	COALESCE(TRIM(u.nombre || ' ' || u.apellido), ''), COALESCE(u.email, ''),
	o.estado, o.subtotal, o.descuento, o.costo_envio, o.total, o.metodo_pago, o.direccion_envio,
	COALESCE(o.notas, ''), o.fecha_pedido, o.fecha_procesado, o.fecha_enviado, o.fecha_entregado`

const orderFrom = ` FROM pedido o LEFT JOIN usuario u ON u.id = o.usuario_id`

func scanOrder(row pgx.Row) (*store.Order, error) {
	var o store.Order
	err := row.Scan(&o.ID, &o.NumeroPedido, &o.UsuarioID, &o.UsuarioNombre, &o.UsuarioEmail,
		&o.Estado, &o.Subtotal, &o.Descuento, &o.CostoEnvio, &o.Total, &o.MetodoPago, &o.DireccionEnvio,
		&o.Notas, &o.FechaPedido, &o.FechaProcesado, &o.FechaEnviado, &o.FechaEntregado)
	if err != nil {
		return nil, translate(err)
	}
	o.Items = []store.OrderItem{}
	return &o, nil
}

// querier is satisfied by the pool and by transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// attachItems loads order lines for every order in one query.
func attachItems(ctx context.Context, q querier, orders []*store.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*store.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx, `
		SELECT id, pedido_id, producto_id, nombre_producto, sku, cantidad, precio_unitario, subtotal
		FROM detalle_pedido WHERE pedido_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      store.OrderItem
			orderID int64
		)
		if err := rows.Scan(&it.ID, &orderID, &it.ProductoID, &it.NombreProducto, &it.SKU,
			&it.Cantidad, &it.PrecioUnitario, &it.Subtotal); err != nil {
			return err
		}
		byID[orderID].Items = append(byID[orderID].Items, it)
	}
	return rows.Err()
}

func (s *Store) queryOrders(ctx context.Context, where string, args ...any) ([]store.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+orderFrom+where+` ORDER BY o.fecha_pedido DESC, o.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var ptrs []*store.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachItems(ctx, s.pool, ptrs); err != nil {
		return nil, err
	}
	orders := make([]store.Order, len(ptrs))
	for i, o := range ptrs {
		orders[i] = *o
	}
	return orders, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID int64) ([]store.Order, error) {
	return s.queryOrders(ctx, ` WHERE o.usuario_id = $1`, userID)
}

func (s *Store) ListOrders(ctx context.Context, estado string) ([]store.Order, error) {
	if estado == "" {
		return s.queryOrders(ctx, "")
	}
	return s.queryOrders(ctx, ` WHERE o.estado = $1`, estado)
}

func (s *Store) OrderByID(ctx context.Context, id int64) (*store.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, s.pool, []*store.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

type checkoutLine struct {
	productID int64
	qty       int
	name      string
	sku       string
	price     float64
	stock     int
	active    bool
}

func (s *Store) Checkout(ctx context.Context, userID int64, in store.CheckoutInput) (*store.Order, error) {
	numero := in.NumeroPedido
	if numero == "" {
		numero = store.NewOrderNumber()
	}

	var orderID int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		// Lock in product id order so concurrent checkouts cannot deadlock.
		rows, err := tx.Query(ctx, `
			SELECT c.producto_id, c.cantidad, p.nombre, p.sku, p.precio, p.stock, p.activo
			FROM carrito c
			JOIN producto p ON p.id = c.producto_id
			WHERE c.usuario_id = $1
			ORDER BY c.producto_id
			FOR UPDATE OF p, c`, userID)
		if err != nil {
			return err
		}
		var lines []checkoutLine
		for rows.Next() {
			var l checkoutLine
			if err := rows.Scan(&l.productID, &l.qty, &l.name, &l.sku, &l.price, &l.stock, &l.active); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(lines) == 0 {
			return store.ErrEmptyCart
		}

		var subtotal float64
		for _, l := range lines {
			if !l.active {
				return store.ErrInactive
			}
			if l.stock < l.qty {
				return &store.StockError{ProductID: l.productID, Available: l.stock}
			}
			subtotal += l.price * float64(l.qty)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO pedido (numero_pedido, usuario_id, estado, subtotal, total, metodo_pago, direccion_envio, notas)
			VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
			RETURNING id`,
			numero, userID, store.OrderPending, subtotal, in.MetodoPago, in.DireccionEnvio, nullString(in.Notas),
		).Scan(&orderID)
		if err != nil {
			return translate(err)
		}

		batch := &pgx.Batch{}
		for _, l := range lines {
			batch.Queue(`
				INSERT INTO detalle_pedido (pedido_id, producto_id, nombre_producto, sku, cantidad, precio_unitario, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				orderID, l.productID, l.name, l.sku, l.qty, l.price, l.price*float64(l.qty))
			batch.Queue(`UPDATE producto SET stock = stock - $2, ventas = ventas + $2 WHERE id = $1`,
				l.productID, l.qty)
		}
		batch.Queue(`DELETE FROM carrito WHERE usuario_id = $1`, userID)
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return s.OrderByID(ctx, orderID)
}

// statusStamp names the timestamp column set the first time an order reaches a state.
var statusStamp = map[string]string{
	store.OrderProcessing: "fecha_procesado",
	store.OrderShipped:    "fecha_enviado",
	store.OrderDelivered:  "fecha_entregado",
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, estado string) (*store.Order, error) {
	set := []string{"estado = $2"}
	if col, ok := statusStamp[estado]; ok {
		set = append(set, col+" = COALESCE("+col+", NOW())")
	}
	tag, err := s.pool.Exec(ctx, `UPDATE pedido SET `+strings.Join(set, ", ")+` WHERE id = $1`, id, estado)
	if err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrNotFound
	}
	return s.OrderByID(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var estado string
		if err := tx.QueryRow(ctx, `SELECT estado FROM pedido WHERE id = $1 FOR UPDATE`, id).Scan(&estado); err != nil {
			return translate(err)
		}
		if o := (store.Order{Estado: estado}); !o.Deletable() {
			return store.ErrOrderLocked
		}

		_, err := tx.Exec(ctx, `
			UPDATE producto p SET stock = p.stock + d.cantidad
			FROM (SELECT producto_id, SUM(cantidad) AS cantidad FROM detalle_pedido
			      WHERE pedido_id = $1 AND producto_id IS NOT NULL GROUP BY producto_id) d
			WHERE p.id = d.producto_id`, id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM pedido WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	st := &store.Stats{TopProductos: []store.TopProduct{}}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE activo),
			COUNT(*) FILTER (WHERE destacado),
			COUNT(*) FILTER (WHERE stock = 0),
			COUNT(*) FILTER (WHERE stock > 0 AND stock <= $1),
			COALESCE(SUM(stock), 0)
		FROM producto`, store.LowStockThreshold).Scan(
		&st.TotalProductos, &st.ProductosActivos, &st.ProductosDestacados,
		&st.ProductosSinStock, &st.ProductosStockBajo, &st.StockTotal)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE estado = 'pendiente'),
			COUNT(*) FILTER (WHERE estado = 'procesando'),
			COUNT(*) FILTER (WHERE estado = 'enviado'),
			COUNT(*) FILTER (WHERE estado = 'entregado'),
			COALESCE(SUM(total) FILTER (WHERE estado <> 'cancelado'), 0)
		FROM pedido`).Scan(
		&st.TotalPedidos, &st.PedidosPendientes, &st.PedidosProcesando,
		&st.PedidosEnviados, &st.PedidosEntregados, &st.IngresosTotal)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE rol = 'admin'),
			COUNT(*) FILTER (WHERE rol = 'customer'),
			COUNT(*) FILTER (WHERE activo)
		FROM usuario`).Scan(&st.TotalUsuarios, &st.TotalAdmins, &st.TotalClientes, &st.UsuariosActivos)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.nombre, p.slug, COALESCE(p.imagen_url, ''),
			COUNT(d.id), SUM(d.cantidad), SUM(d.subtotal)
		FROM detalle_pedido d
		JOIN pedido o ON o.id = d.pedido_id
		JOIN producto p ON p.id = d.producto_id
		WHERE o.estado <> 'cancelado'
		GROUP BY p.id
		ORDER BY SUM(d.cantidad) DESC, p.id
		LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tp store.TopProduct
		if err := rows.Scan(&tp.ID, &tp.Nombre, &tp.Slug, &tp.ImagenURL,
			&tp.VecesVendido, &tp.UnidadesVendidas, &tp.IngresosTotales); err != nil {
			return nil, err
		}
		st.TopProductos = append(st.TopProductos, tp)
	}
	return st, rows.Err()
}
