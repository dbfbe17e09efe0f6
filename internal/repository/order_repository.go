package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// ErrOrderNotFound is returned when an order lookup yields no rows.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo provides CRUD operations for orders and their line items.
// Orders snapshot product name and unit price at creation time, so the
// order ledger stays stable under later catalog edits.  All timestamp
// fields are stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderCols = `id, table_id, waiter_id, status, total_amount, observations, estimated_time, payment_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, o *model.Order) error {
	var obs sql.NullString
	var payID sql.NullInt64
	if err := row.Scan(&o.ID, &o.TableID, &o.WaiterID, &o.Status, &o.TotalAmount,
		&obs, &o.EstimatedTime, &payID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	if obs.Valid {
		s := obs.String
		o.Observations = &s
	}
	if payID.Valid {
		p := uint64(payID.Int64)
		o.PaymentID = &p
	}
	return nil
}

// CreateTx inserts a new order and its line items within the scope of an
// existing transaction.  It populates the generated IDs and timestamps on
// the provided order.  The caller must commit or rollback the transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (table_id, waiter_id, status, total_amount, observations, estimated_time)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var obs interface{}
	if o.Observations != nil {
		obs = *o.Observations
	}
	result, err := tx.ExecContext(ctx, q, o.TableID, o.WaiterID, o.Status, o.TotalAmount, obs, o.EstimatedTime)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if len(o.Items) > 0 {
		query := `INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, total_price, observations) VALUES `
		args := make([]interface{}, 0, len(o.Items)*7)
		for i := range o.Items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, ?)"
			it := &o.Items[i]
			it.OrderID = o.ID
			var itObs interface{}
			if it.Observations != nil {
				itObs = *it.Observations
			}
			args = append(args, it.OrderID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.TotalPrice, itObs)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	// Query back timestamps and defaults
	const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID retrieves an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders WHERE id = ?`
	var o model.Order
	if err := scanOrder(r.db.QueryRowContext(ctx, q, id), &o); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

// OrderFilter narrows List results.  Zero values mean "no filter".
type OrderFilter struct {
	TableID  uint64
	WaiterID uint64
	Status   string
}

// List returns orders matching the filter, newest first, with items
// populated in a single follow-up query.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders`
	var conds []string
	var args []interface{}
	if f.TableID != 0 {
		conds = append(conds, "table_id = ?")
		args = append(args, f.TableID)
	}
	if f.WaiterID != 0 {
		conds = append(conds, "waiter_id = ?")
		args = append(args, f.WaiterID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		o.Items = []model.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for oid, its := range items {
		if idx, ok := index[oid]; ok {
			orders[idx].Items = its
		}
	}
	return orders, nil
}

// itemsFor loads the line items of the given orders in one query, keyed by
// order id.
func (r *OrderRepo) itemsFor(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, 0, len(orderIDs))
	args := make([]interface{}, 0, len(orderIDs))
	for _, id := range orderIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, order_id, product_id, product_name, unit_price, quantity, total_price, observations
	      FROM order_items
	      WHERE order_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY order_id, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		var obs sql.NullString
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.TotalPrice, &obs); err != nil {
			return nil, err
		}
		if obs.Valid {
			s := obs.String
			it.Observations = &s
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// ListByTableForUpdateTx loads a table's orders inside a transaction with
// row-level locks, optionally restricted to one status.  Payment
// registration relies on the lock so a racing status update cannot flip an
// order out from under the settlement.
func (r *OrderRepo) ListByTableForUpdateTx(ctx context.Context, tx *sql.Tx, tableID uint64, status string) ([]model.Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE table_id = ?`
	args := []interface{}{tableID}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at FOR UPDATE"

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatusCAS flips an order from one status to another only when the
// current status still matches.  Returns ErrConflict when another request
// changed the order first, so concurrent transitions never go backward
// undetected.
func (r *OrderRepo) UpdateStatusCAS(ctx context.Context, id uint64, from, to string) error {
	const q = `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkPaidTx bulk-flips the given orders to pago and links them to the
// settlement payment, inside the provided transaction.  Only orders still
// entregue are touched; the returned count lets the caller verify the flip
// covered every settled order.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderIDs []uint64, paymentID uint64) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, 0, len(orderIDs))
	args := []interface{}{model.OrderPago, paymentID}
	for _, id := range orderIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	args = append(args, model.OrderEntregue)
	q := `UPDATE orders SET status = ?, payment_id = ?, updated_at = CURRENT_TIMESTAMP
	      WHERE id IN (` + strings.Join(placeholders, ",") + `) AND status = ?`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
