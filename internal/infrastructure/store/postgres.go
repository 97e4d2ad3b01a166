package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/example/inventory-dashboard/internal/domain"
)

// ConnectPostgres opens a connection pool and verifies it with a ping.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresStore implements Interface on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Inventory

func (s *PostgresStore) CreateItem(ctx context.Context, name, category string, quantity int) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO inventory_items (id, name, category, quantity, available)
		VALUES ($1, $2, $3, $4, $4 > 0)
		RETURNING id, name, category, quantity, available, created_at`,
		uuid.New().String(), name, category, quantity,
	).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Available, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]domain.InventoryItem, error) {
	query := `
		SELECT id, name, category, quantity, available, created_at
		FROM inventory_items
	`
	var conditions []string
	var args []any

	if filter.Category != "" {
		args = append(args, likePattern(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conditions = append(conditions, fmt.Sprintf("available = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, likePattern(filter.Name))
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Available, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.getItemBy(ctx, "id = $1", id)
}

func (s *PostgresStore) GetItemByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	return s.getItemBy(ctx, "name = $1", name)
}

func (s *PostgresStore) getItemBy(ctx context.Context, cond string, arg any) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, available, created_at
		FROM inventory_items WHERE `+cond,
		arg,
	).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Available, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) SetItemQuantity(ctx context.Context, id string, quantity int) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = $2, available = $2 > 0
		WHERE id = $1
		RETURNING id, name, category, quantity, available, created_at`,
		id, quantity,
	).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Available, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set item quantity: %w", err)
	}
	return &item, nil
}

// likePattern builds a contains pattern for ILIKE, escaping the LIKE
// metacharacters so a literal % or _ in user input matches literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// Customers

// UpsertCustomer resolves a customer by email, creating one when absent.
// The no-op DO UPDATE makes RETURNING yield the existing row on conflict,
// so concurrent creations of the same customer cannot race.
func (s *PostgresStore) UpsertCustomer(ctx context.Context, name, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, name, email, created_at`,
		uuid.New().String(), name, email,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &c, nil
}

// Orders

func (s *PostgresStore) CreateOrder(ctx context.Context, customerID string, items []OrderItemInput) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orderID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status)
		VALUES ($1, $2, $3)`,
		orderID, customerID, domain.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, inventory_item_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), orderID, item.InventoryItemID, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.status, o.created_at, c.id, c.name, c.email, c.created_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`,
		id,
	).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.Customer.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	o.Items, err = s.loadOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) loadOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.inventory_item_id, ii.name, ii.category, oi.quantity
		FROM order_items oi
		JOIN inventory_items ii ON ii.id = oi.inventory_item_id
		WHERE oi.order_id = $1
		ORDER BY ii.name ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.InventoryItemID, &item.Product, &item.Category, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]domain.Order, int, error) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.Start != nil && filter.End != nil {
		args = append(args, *filter.Start)
		start := fmt.Sprintf("o.created_at >= $%d", len(args))
		args = append(args, *filter.End)
		end := fmt.Sprintf("o.created_at <= $%d", len(args))
		conditions = append(conditions, start, end)
	}
	if filter.SearchTerm != "" {
		args = append(args, likePattern(filter.SearchTerm))
		n := len(args)
		search := fmt.Sprintf(`(
			c.name ILIKE $%d
			OR EXISTS (
				SELECT 1 FROM order_items oi
				JOIN inventory_items ii ON ii.id = oi.inventory_item_id
				WHERE oi.order_id = o.id AND (ii.name ILIKE $%d OR ii.category ILIKE $%d)
			)`, n, n, n)
		if filter.SearchID != "" {
			args = append(args, filter.SearchID)
			search += fmt.Sprintf(" OR o.id = $%d", len(args))
		}
		search += ")"
		conditions = append(conditions, search)
	}

	where := ""
	for i, cond := range conditions {
		if i == 0 {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	from := `
		FROM orders o
		JOIN customers c ON c.id = o.customer_id`

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT o.id, o.status, o.created_at, c.id, c.name, c.email, c.created_at`+
		from+where+`
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	orders, err := s.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *PostgresStore) RecentOrders(ctx context.Context, n int) ([]domain.Order, error) {
	return s.queryOrders(ctx, `
		SELECT o.id, o.status, o.created_at, c.id, c.name, c.email, c.created_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC
		LIMIT $1`,
		n,
	)
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Status, &o.CreatedAt, &o.Customer.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.loadOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *PostgresStore) TransitionOrder(ctx context.Context, id string, status domain.OrderStatus, stockDelta int) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrNotFound
	}

	if stockDelta != 0 {
		// Lines are summed per item first: with UPDATE ... FROM, a target row
		// matched by several source rows takes only one of them, so an order
		// holding two lines for the same product would adjust by a single line.
		_, err = tx.ExecContext(ctx, `
			UPDATE inventory_items ii
			SET quantity = ii.quantity + $2 * li.quantity,
			    available = ii.quantity + $2 * li.quantity > 0
			FROM (
				SELECT inventory_item_id, SUM(quantity) AS quantity
				FROM order_items
				WHERE order_id = $1
				GROUP BY inventory_item_id
			) li
			WHERE li.inventory_item_id = ii.id`,
			id, stockDelta,
		)
		if err != nil {
			return nil, fmt.Errorf("adjust inventory: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return s.GetOrder(ctx, id)
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, created_at`,
		uuid.New().String(), name, email, passwordHash,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}
