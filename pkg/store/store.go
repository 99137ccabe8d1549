// Package store defines the shop's persistence boundary. Implementations live
// in the postgres and memory subpackages and must be safe for concurrent use.
package store

import "context"

type Users interface {
	// CreateUser assigns u.ID and u.FechaRegistro. Duplicate emails yield a ConflictError.
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64) error
}

type Catalog interface {
	// ListProducts returns one page plus the total matching rows.
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int, error)
	// ProductBySlug returns active products only.
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	ProductByID(ctx context.Context, id int64) (*Product, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	// CreateProduct assigns p.ID. Duplicate SKUs yield a ConflictError.
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	// DeleteProduct deactivates products referenced by orders and removes the rest.
	DeleteProduct(ctx context.Context, id int64) (deactivated bool, err error)
	IncrementViews(ctx context.Context, id int64) error
}

type Categories interface {
	// CreateCategory assigns c.ID. Duplicate slugs yield a ConflictError.
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
}

type Carts interface {
	CartItems(ctx context.Context, userID int64) ([]CartItem, error)
	// AddToCart locks the product, checks stock against the existing line plus
	// qty and upserts. Returns the resulting line quantity.
	AddToCart(ctx context.Context, userID, productID int64, qty int) (int, error)
	UpdateCartItem(ctx context.Context, userID, productID int64, qty int) error
	RemoveCartItem(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type Orders interface {
	// Checkout turns the cart into an order in one transaction: stock is
	// verified and decremented and the cart is emptied.
	Checkout(ctx context.Context, userID int64, in CheckoutInput) (*Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]Order, error)
	ListOrders(ctx context.Context, estado string) ([]Order, error)
	OrderByID(ctx context.Context, id int64) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, estado string) (*Order, error)
	// DeleteOrder restores stock; only pending or cancelled orders qualify.
	DeleteOrder(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

type Inquiries interface {
	CreateInquiry(ctx context.Context, q *Inquiry) error
}

// Store is the full persistence surface used by the API.
type Store interface {
	Users
	Catalog
	Categories
	Carts
	Orders
	Inquiries
	Ping(ctx context.Context) error
	Close() error
}
