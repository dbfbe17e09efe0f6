package repository // repository defines data access for the menu catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// ErrProductNotFound is returned when a product lookup yields no rows.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo provides methods to work with menu products.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the given DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productCols = `id, name, description, price, category, available, preparation_time, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }, p *model.Product) error {
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.Price, &p.Category,
		&p.Available, &p.PreparationTime, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if desc.Valid {
		d := desc.String
		p.Description = &d
	}
	return nil
}

// Create inserts a product.  On success the product's ID is populated.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `INSERT INTO products (name, description, price, category, available, preparation_time)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var desc interface{}
	if p.Description != nil {
		desc = *p.Description
	}
	res, err := r.db.ExecContext(ctx, q, p.Name, desc, p.Price, p.Category, p.Available, p.PreparationTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID retrieves a product by its id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id = ?`
	var p model.Product
	if err := scanProduct(r.db.QueryRowContext(ctx, q, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List retrieves products, optionally filtered by category and
// availability, ordered by category then name.
func (r *ProductRepo) List(ctx context.Context, category string, available *bool) ([]model.Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	var conds []string
	var args []interface{}
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if available != nil {
		conds = append(conds, "available = ?")
		args = append(args, *available)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY category, name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetAvailableByIDs loads the available products among ids, keyed by id.
// Order creation uses the result both to validate the cart and to snapshot
// names and prices.
func (r *ProductRepo) GetAvailableByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT ` + productCols + ` FROM products WHERE available = 1 AND id IN (` +
		strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Update persists all editable product fields.  Returns
// ErrProductNotFound when the id does not exist.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	const q = `UPDATE products
	           SET name = ?, description = ?, price = ?, category = ?, available = ?, preparation_time = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	var desc interface{}
	if p.Description != nil {
		desc = *p.Description
	}
	res, err := r.db.ExecContext(ctx, q, p.Name, desc, p.Price, p.Category, p.Available, p.PreparationTime, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product that no order references; referenced products
// are soft-excluded by flipping available to false so historical order
// snapshots stay meaningful.  The returned bool is true when the product
// was hard-deleted.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE product_id = ?`, id).Scan(&refs); err != nil {
		return false, err
	}
	if refs > 0 {
		res, err := r.db.ExecContext(ctx,
			`UPDATE products SET available = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
		if err != nil {
			return false, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, ErrProductNotFound
		}
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrProductNotFound
	}
	return true, nil
}

// CategoryCount pairs a category name with how many available products it
// holds.
type CategoryCount struct {
	Name              string `json:"name"`
	AvailableProducts int    `json:"availableProducts"`
}

// CategoriesWithCounts returns the catalog categories with their
// available-product counts, ordered by category name.
func (r *ProductRepo) CategoriesWithCounts(ctx context.Context) ([]CategoryCount, error) {
	const q = `SELECT category, COUNT(*) FROM products WHERE available = 1 GROUP BY category ORDER BY category`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.AvailableProducts); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
