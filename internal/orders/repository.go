package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/threadline/storefront/internal/domain"
)

const orderColumns = `
	id, order_number, email, first_name, last_name, phone,
	address, city, state, zip_code, country,
	total_amount, status, payment_method, payment_id, notes,
	created_at, updated_at
`

const itemColumns = `
	oi.id, oi.product_id, oi.quantity, oi.size, oi.color, oi.price,
	p.name, p.slug, p.price, p.image, COALESCE(c.name, ''), p.featured, p.stock
`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and all of its items in one transaction, so the
// order is never visible half-written. A unique violation on order_number
// is reported as ErrOrderNumberTaken for the caller to retry.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, email, first_name, last_name, phone,
			address, city, state, zip_code, country,
			total_amount, status, payment_method, payment_id, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`,
		order.OrderNumber, order.Email, order.FirstName, order.LastName, order.Phone,
		order.Address, order.City, order.State, order.ZipCode, order.Country,
		order.TotalAmount, order.Status, order.PaymentMethod, order.PaymentID, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return ErrOrderNumberTaken
		}
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, size, color, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, order.ID, item.ProductID, item.Quantity, item.Size, item.Color, item.Price).Scan(&item.ID)
		if err != nil {
			return err
		}
		item.Total = item.Subtotal()
	}

	return tx.Commit()
}

// GetByOrderNumber is the tracking lookup. It matches the number exactly
// and returns (nil, nil) when no order carries it.
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getBy(ctx, "order_number = $1", orderNumber)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *OrderRepository) getBy(ctx context.Context, condition string, arg any) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE "+condition, arg,
	).Scan(
		&order.ID, &order.OrderNumber, &order.Email, &order.FirstName, &order.LastName, &order.Phone,
		&order.Address, &order.City, &order.State, &order.ZipCode, &order.Country,
		&order.TotalAmount, &order.Status, &order.PaymentMethod, &order.PaymentID, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	items, err := r.itemsForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *OrderRepository) itemsForOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.OrderItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (domain.OrderItem, error) {
	var item domain.OrderItem
	product := &domain.ProductSummary{}

	err := rows.Scan(
		&item.ID, &item.ProductID, &item.Quantity, &item.Size, &item.Color, &item.Price,
		&product.Name, &product.Slug, &product.Price, &product.Image,
		&product.Category, &product.Featured, &product.Stock,
	)
	if err != nil {
		return item, err
	}

	product.ID = item.ProductID
	item.Product = product
	item.Total = item.Subtotal()
	return item, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		err := rows.Scan(
			&order.ID, &order.OrderNumber, &order.Email, &order.FirstName, &order.LastName, &order.Phone,
			&order.Address, &order.City, &order.State, &order.ZipCode, &order.Country,
			&order.TotalAmount, &order.Status, &order.PaymentMethod, &order.PaymentID, &order.Notes,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, `+itemColumns+`
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderItem
		product := &domain.ProductSummary{}

		err := itemRows.Scan(
			&orderID,
			&item.ID, &item.ProductID, &item.Quantity, &item.Size, &item.Color, &item.Price,
			&product.Name, &product.Slug, &product.Price, &product.Image,
			&product.Category, &product.Featured, &product.Stock,
		)
		if err != nil {
			return nil, err
		}

		product.ID = item.ProductID
		item.Product = product
		item.Total = item.Subtotal()

		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
