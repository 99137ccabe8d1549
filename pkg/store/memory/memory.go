// Package memory is an in-process store.Store used by tests and by the dev
// server when no database is configured. A single lock serialises writes so
// every multi-step operation is atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/store"
)

type cartKey struct {
	user    int64
	product int64
}

type cartLine struct {
	id      int64
	qty     int
	added   time.Time
	updated time.Time
}

// Store keeps all entities in maps keyed by id.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	users      map[int64]*store.User
	categories map[int64]*store.Category
	products   map[int64]*store.Product
	cart       map[cartKey]*cartLine
	orders     map[int64]*store.Order
	inquiries  map[int64]*store.Inquiry
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		users:      make(map[int64]*store.User),
		categories: make(map[int64]*store.Category),
		products:   make(map[int64]*store.Product),
		cart:       make(map[cartKey]*cartLine),
		orders:     make(map[int64]*store.Order),
		inquiries:  make(map[int64]*store.Inquiry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Categories

func (s *Store) CreateCategory(_ context.Context, c *store.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return &store.ConflictError{Field: "slug"}
		}
	}
	c.ID = s.nextID()
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *Store) ListCategories(context.Context) ([]store.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByEmail(u.Email) != nil {
		return &store.ConflictError{Field: "email"}
	}
	u.ID = s.nextID()
	u.FechaRegistro = s.now()
	if u.Rol == "" {
		u.Rol = store.RoleCustomer
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) userByEmail(email string) *store.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.userByEmail(email)
	if u == nil {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(context.Context) ([]store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, upd store.UserUpdate) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if other := s.userByEmail(upd.Email); other != nil && other.ID != id {
		return nil, &store.ConflictError{Field: "email"}
	}
	u.Nombre, u.Apellido, u.Email, u.Telefono = upd.Nombre, upd.Apellido, upd.Email, upd.Telefono
	if upd.Rol != "" {
		u.Rol = upd.Rol
	}
	if upd.Activo != nil {
		u.Activo = *upd.Activo
	}
	if upd.PasswordHash != "" {
		u.PasswordHash = upd.PasswordHash
	}
	cp := *u
	return &cp, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	for k := range s.cart {
		if k.user == id {
			delete(s.cart, k)
		}
	}
	for _, o := range s.orders {
		if o.UsuarioID != nil && *o.UsuarioID == id {
			o.UsuarioID = nil
		}
	}
	return nil
}

func (s *Store) TouchLastLogin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	t := s.now()
	u.UltimaSesion = &t
	return nil
}

// Catalog

func (s *Store) withCategory(p *store.Product) store.Product {
	cp := *p
	cp.Categoria = nil
	if p.CategoriaID != nil {
		if c, ok := s.categories[*p.CategoriaID]; ok {
			cc := *c
			cp.Categoria = &cc
		}
	}
	return cp
}

func matches(p *store.Product, cat *store.Category, f store.ProductFilter) bool {
	if !f.IncludeInactive && !p.Activo {
		return false
	}
	if f.CategoriaSlug != "" && (cat == nil || cat.Slug != f.CategoriaSlug) {
		return false
	}
	if f.Busqueda != "" {
		q := strings.ToLower(f.Busqueda)
		hay := strings.ToLower(p.Nombre + "\x00" + p.Descripcion + "\x00" + p.DescripcionCorta + "\x00" + p.SKU)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	if f.PrecioMin != nil && p.Precio < *f.PrecioMin {
		return false
	}
	if f.PrecioMax != nil && p.Precio > *f.PrecioMax {
		return false
	}
	if f.SoloStock && p.Stock <= 0 {
		return false
	}
	if f.Destacado && !p.Destacado {
		return false
	}
	return true
}

func less(ordenar string) func(a, b *store.Product) bool {
	byID := func(a, b *store.Product) bool { return a.ID > b.ID }
	then := func(primary func(a, b *store.Product) (bool, bool)) func(a, b *store.Product) bool {
		return func(a, b *store.Product) bool {
			if lt, eq := primary(a, b); !eq {
				return lt
			}
			return byID(a, b)
		}
	}
	switch ordenar {
	case store.SortPriceAsc:
		return then(func(a, b *store.Product) (bool, bool) { return a.Precio < b.Precio, a.Precio == b.Precio })
	case store.SortPriceDesc:
		return then(func(a, b *store.Product) (bool, bool) { return a.Precio > b.Precio, a.Precio == b.Precio })
	case store.SortNameAsc:
		return then(func(a, b *store.Product) (bool, bool) { return a.Nombre < b.Nombre, a.Nombre == b.Nombre })
	case store.SortNameDesc:
		return then(func(a, b *store.Product) (bool, bool) { return a.Nombre > b.Nombre, a.Nombre == b.Nombre })
	case store.SortPopular:
		return then(func(a, b *store.Product) (bool, bool) { return a.Ventas > b.Ventas, a.Ventas == b.Ventas })
	default:
		return then(func(a, b *store.Product) (bool, bool) {
			return a.FechaCreacion.After(b.FechaCreacion), a.FechaCreacion.Equal(b.FechaCreacion)
		})
	}
}

func (s *Store) ListProducts(_ context.Context, f store.ProductFilter) ([]store.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []*store.Product
	for _, p := range s.products {
		var cat *store.Category
		if p.CategoriaID != nil {
			cat = s.categories[*p.CategoriaID]
		}
		if matches(p, cat, f) {
			hits = append(hits, p)
		}
	}
	cmp := less(f.Ordenar)
	sort.Slice(hits, func(i, j int) bool { return cmp(hits[i], hits[j]) })

	total := len(hits)
	start := min(f.Offset(), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	out := make([]store.Product, 0, end-start)
	for _, p := range hits[start:end] {
		out = append(out, s.withCategory(p))
	}
	return out, total, nil
}

func (s *Store) ProductBySlug(_ context.Context, slug string) (*store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug && p.Activo {
			cp := s.withCategory(p)
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ProductByID(_ context.Context, id int64) (*store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := s.withCategory(p)
	return &cp, nil
}

func (s *Store) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) skuTaken(sku string, excludeID int64) bool {
	for _, p := range s.products {
		if p.SKU == sku && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (s *Store) CreateProduct(_ context.Context, p *store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skuTaken(p.SKU, 0) {
		return &store.ConflictError{Field: "sku"}
	}
	p.ID = s.nextID()
	p.FechaCreacion = s.now()
	p.FechaActualizacion = p.FechaCreacion
	cp := *p
	cp.Categoria = nil
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.skuTaken(p.SKU, p.ID) {
		return &store.ConflictError{Field: "sku"}
	}
	p.FechaCreacion = cur.FechaCreacion
	p.Vistas, p.Ventas = cur.Vistas, cur.Ventas
	p.FechaActualizacion = s.now()
	cp := *p
	cp.Categoria = nil
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return false, store.ErrNotFound
	}
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.ProductoID != nil && *it.ProductoID == id {
				p.Activo = false
				p.FechaActualizacion = s.now()
				return true, nil
			}
		}
	}
	delete(s.products, id)
	for k := range s.cart {
		if k.product == id {
			delete(s.cart, k)
		}
	}
	return false, nil
}

func (s *Store) IncrementViews(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Vistas++
	return nil
}

// Carts

func (s *Store) CartItems(_ context.Context, userID int64) ([]store.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.CartItem
	for k, line := range s.cart {
		if k.user != userID {
			continue
		}
		p, ok := s.products[k.product]
		if !ok || !p.Activo {
			continue
		}
		out = append(out, store.CartItem{
			ID:            line.id,
			Cantidad:      line.qty,
			FechaAgregado: line.added,
			Producto: store.CartProduct{
				ID: p.ID, Nombre: p.Nombre, Slug: p.Slug, Precio: p.Precio,
				PrecioAnterior: p.PrecioAnterior, Stock: p.Stock, ImagenURL: p.ImagenURL,
				SKU: p.SKU, Activo: p.Activo,
			},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FechaAgregado.Equal(out[j].FechaAgregado) {
			return out[i].ID > out[j].ID
		}
		return out[i].FechaAgregado.After(out[j].FechaAgregado)
	})
	return out, nil
}

func (s *Store) AddToCart(_ context.Context, userID, productID int64, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return 0, store.ErrNotFound
	}
	if !p.Activo {
		return 0, store.ErrInactive
	}
	key := cartKey{userID, productID}
	line := s.cart[key]
	existing := 0
	if line != nil {
		existing = line.qty
	}
	if p.Stock < existing+qty {
		return 0, &store.StockError{ProductID: productID, Available: p.Stock}
	}
	now := s.now()
	if line == nil {
		line = &cartLine{id: s.nextID(), added: now}
		s.cart[key] = line
	}
	line.qty += qty
	line.updated = now
	return line.qty, nil
}

func (s *Store) UpdateCartItem(_ context.Context, userID, productID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.cart[cartKey{userID, productID}]
	if !ok {
		return store.ErrNotFound
	}
	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	if p.Stock < qty {
		return &store.StockError{ProductID: productID, Available: p.Stock}
	}
	line.qty = qty
	line.updated = s.now()
	return nil
}

func (s *Store) RemoveCartItem(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{userID, productID}
	if _, ok := s.cart[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.cart, key)
	return nil
}

func (s *Store) ClearCart(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.cart {
		if k.user == userID {
			delete(s.cart, k)
		}
	}
	return nil
}

// Orders

func (s *Store) Checkout(_ context.Context, userID int64, in store.CheckoutInput) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []cartKey
	for k := range s.cart {
		if k.user == userID {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, store.ErrEmptyCart
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].product < keys[j].product })

	// Validate everything before mutating anything.
	for _, k := range keys {
		p, ok := s.products[k.product]
		if !ok || !p.Activo {
			return nil, store.ErrInactive
		}
		if p.Stock < s.cart[k].qty {
			return nil, &store.StockError{ProductID: p.ID, Available: p.Stock}
		}
	}

	uid := userID
	o := &store.Order{
		ID:             s.nextID(),
		NumeroPedido:   in.NumeroPedido,
		UsuarioID:      &uid,
		Estado:         store.OrderPending,
		MetodoPago:     in.MetodoPago,
		DireccionEnvio: in.DireccionEnvio,
		Notas:          in.Notas,
		FechaPedido:    s.now(),
	}
	if o.NumeroPedido == "" {
		o.NumeroPedido = store.NewOrderNumber()
	}
	for _, k := range keys {
		p := s.products[k.product]
		qty := s.cart[k].qty
		pid := p.ID
		sub := p.Precio * float64(qty)
		o.Items = append(o.Items, store.OrderItem{
			ID: s.nextID(), ProductoID: &pid, NombreProducto: p.Nombre, SKU: p.SKU,
			Cantidad: qty, PrecioUnitario: p.Precio, Subtotal: sub,
		})
		o.Subtotal += sub
		p.Stock -= qty
		p.Ventas += qty
		delete(s.cart, k)
	}
	o.Total = o.Subtotal - o.Descuento + o.CostoEnvio
	s.orders[o.ID] = o
	return s.orderView(o), nil
}

func (s *Store) orderView(o *store.Order) *store.Order {
	cp := *o
	cp.Items = append([]store.OrderItem(nil), o.Items...)
	if o.UsuarioID != nil {
		if u, ok := s.users[*o.UsuarioID]; ok {
			cp.UsuarioNombre = strings.TrimSpace(u.Nombre + " " + u.Apellido)
			cp.UsuarioEmail = u.Email
		}
	}
	return &cp
}

func (s *Store) collectOrders(keep func(*store.Order) bool) []store.Order {
	var out []store.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *s.orderView(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FechaPedido.Equal(out[j].FechaPedido) {
			return out[i].ID > out[j].ID
		}
		return out[i].FechaPedido.After(out[j].FechaPedido)
	})
	return out
}

func (s *Store) OrdersByUser(_ context.Context, userID int64) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectOrders(func(o *store.Order) bool {
		return o.UsuarioID != nil && *o.UsuarioID == userID
	}), nil
}

func (s *Store) ListOrders(_ context.Context, estado string) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectOrders(func(o *store.Order) bool {
		return estado == "" || o.Estado == estado
	}), nil
}

func (s *Store) OrderByID(_ context.Context, id int64) (*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.orderView(o), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int64, estado string) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Estado = estado
	now := s.now()
	stamp := func(t **time.Time) {
		if *t == nil {
			*t = &now
		}
	}
	switch estado {
	case store.OrderProcessing:
		stamp(&o.FechaProcesado)
	case store.OrderShipped:
		stamp(&o.FechaEnviado)
	case store.OrderDelivered:
		stamp(&o.FechaEntregado)
	}
	return s.orderView(o), nil
}

func (s *Store) DeleteOrder(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if !o.Deletable() {
		return store.ErrOrderLocked
	}
	for _, it := range o.Items {
		if it.ProductoID == nil {
			continue
		}
		if p, ok := s.products[*it.ProductoID]; ok {
			p.Stock += it.Cantidad
		}
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) Stats(context.Context) (*store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &store.Stats{TopProductos: []store.TopProduct{}}
	for _, p := range s.products {
		st.TotalProductos++
		if p.Activo {
			st.ProductosActivos++
		}
		if p.Destacado {
			st.ProductosDestacados++
		}
		switch {
		case p.Stock == 0:
			st.ProductosSinStock++
		case p.Stock <= store.LowStockThreshold:
			st.ProductosStockBajo++
		}
		st.StockTotal += p.Stock
	}

	top := map[int64]*store.TopProduct{}
	for _, o := range s.orders {
		st.TotalPedidos++
		switch o.Estado {
		case store.OrderPending:
			st.PedidosPendientes++
		case store.OrderProcessing:
			st.PedidosProcesando++
		case store.OrderShipped:
			st.PedidosEnviados++
		case store.OrderDelivered:
			st.PedidosEntregados++
		}
		if o.Estado == store.OrderCancelled {
			continue
		}
		st.IngresosTotal += o.Total
		for _, it := range o.Items {
			if it.ProductoID == nil {
				continue
			}
			p, ok := s.products[*it.ProductoID]
			if !ok {
				continue
			}
			tp := top[p.ID]
			if tp == nil {
				tp = &store.TopProduct{ID: p.ID, Nombre: p.Nombre, Slug: p.Slug, ImagenURL: p.ImagenURL}
				top[p.ID] = tp
			}
			tp.VecesVendido++
			tp.UnidadesVendidas += it.Cantidad
			tp.IngresosTotales += it.Subtotal
		}
	}
	for _, tp := range top {
		st.TopProductos = append(st.TopProductos, *tp)
	}
	sort.Slice(st.TopProductos, func(i, j int) bool {
		a, b := st.TopProductos[i], st.TopProductos[j]
		if a.UnidadesVendidas != b.UnidadesVendidas {
			return a.UnidadesVendidas > b.UnidadesVendidas
		}
		return a.ID < b.ID
	})
	if len(st.TopProductos) > 5 {
		st.TopProductos = st.TopProductos[:5]
	}

	for _, u := range s.users {
		st.TotalUsuarios++
		switch u.Rol {
		case store.RoleAdmin:
			st.TotalAdmins++
		case store.RoleCustomer:
			st.TotalClientes++
		}
		if u.Activo {
			st.UsuariosActivos++
		}
	}
	return st, nil
}

// CreateInquiry stores a contact message.
func (s *Store) CreateInquiry(_ context.Context, q *store.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID()
	q.FechaCreacion = s.now()
	cp := *q
	s.inquiries[q.ID] = &cp
	return nil
}

// Inquiries returns stored contact messages, oldest first.
func (s *Store) Inquiries() []store.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Inquiry, 0, len(s.inquiries))
	for _, q := range s.inquiries {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
