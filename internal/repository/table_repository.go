package repository // repository defines data access for tables

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// ErrTableNotFound is returned when a table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// ErrTableNumberExists is returned when creating a table with a number
// that is already registered.
var ErrTableNumberExists = errors.New("table number already exists")

// TableRepo provides methods to work with tables in the database.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions.
func (r *TableRepo) DB() *sql.DB { return r.db }

const tableCols = `id, number, capacity, status, current_customers, assigned_waiter, identification, created_at, updated_at`

func scanTable(row interface{ Scan(...interface{}) error }, t *model.Table) error {
	var waiter sql.NullInt64
	var ident sql.NullString
	if err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CurrentCustomers,
		&waiter, &ident, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	if waiter.Valid {
		w := uint64(waiter.Int64)
		t.AssignedWaiter = &w
	}
	if ident.Valid {
		id := ident.String
		t.Identification = &id
	}
	return nil
}

// Create inserts a table record.  On success the table's ID is populated.
// New tables always start disponivel.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (number, capacity, status) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, model.TableDisponivel)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TableDisponivel
	return nil
}

// GetByID retrieves a table by its id.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE id = ?`
	var t model.Table
	if err := scanTable(r.db.QueryRowContext(ctx, q, id), &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByIDForUpdateTx loads a table row inside a transaction with a
// row-level lock.  Payment registration locks the table first so two
// concurrent settlement attempts for the same table serialize instead of
// both passing the duplicate-payment check.
func (r *TableRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE id = ? FOR UPDATE`
	var t model.Table
	if err := scanTable(tx.QueryRowContext(ctx, q, id), &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List retrieves all tables ordered by number.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Table
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Update persists occupancy fields: status, current customers, assigned
// waiter and party identification.  Returns ErrTableNotFound when the id
// does not exist.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE tables
	           SET status = ?, current_customers = ?, assigned_waiter = ?, identification = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	var waiter interface{}
	if t.AssignedWaiter != nil {
		waiter = *t.AssignedWaiter
	}
	var ident interface{}
	if t.Identification != nil {
		ident = *t.Identification
	}
	res, err := r.db.ExecContext(ctx, q, t.Status, t.CurrentCustomers, waiter, ident, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// FreeTx releases a table inside the scope of an existing transaction:
// status back to disponivel, occupancy fields cleared.  Used by payment
// registration so the table is freed atomically with the settlement.
func (r *TableRepo) FreeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE tables
	           SET status = ?, current_customers = 0, assigned_waiter = NULL, identification = NULL, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.TableDisponivel, id)
	return err
}

// Delete removes a table.  It refuses with ErrConflict while any order
// still references the table, so billing history is never orphaned.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE table_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrTableNotFound
	}
	return nil
}
