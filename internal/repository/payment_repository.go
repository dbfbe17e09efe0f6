package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// PaymentRepo provides persistence for per-table settlement records.  A
// payment groups every delivered order of a table at settlement time; the
// split across payment methods lives in payment_methods and the settled
// orders in payment_orders link rows.  Payments are immutable after
// creation.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, table_id, table_identification, total_amount, status, paid_at, change_amount, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }, p *model.Payment) error {
	var ident sql.NullString
	if err := row.Scan(&p.ID, &p.TableID, &ident, &p.TotalAmount, &p.Status,
		&p.PaidAt, &p.ChangeAmount, &p.CreatedAt); err != nil {
		return err
	}
	if ident.Valid {
		s := ident.String
		p.TableIdentification = &s
	}
	return nil
}

// ActiveExistsTx reports whether a non-cancelled payment already exists
// for the table, inside the given transaction.  This is the
// duplicate-payment guard of the settlement flow.
func (r *PaymentRepo) ActiveExistsTx(ctx context.Context, tx *sql.Tx, tableID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE table_id = ? AND status <> ?`,
		tableID, model.PaymentCancelado).Scan(&n)
	return n > 0, err
}

// CreateTx inserts a payment, its method entries and the order link rows
// within the scope of an existing transaction.  It populates the generated
// ID on the provided record.  The caller must commit or rollback.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (table_id, table_identification, total_amount, status, paid_at, change_amount)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var ident interface{}
	if p.TableIdentification != nil {
		ident = *p.TableIdentification
	}
	result, err := tx.ExecContext(ctx, q, p.TableID, ident, p.TotalAmount, p.Status, p.PaidAt, p.ChangeAmount)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	if len(p.Methods) > 0 {
		query := `INSERT INTO payment_methods (payment_id, type, amount, description, received_amount) VALUES `
		args := make([]interface{}, 0, len(p.Methods)*5)
		for i := range p.Methods {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			m := &p.Methods[i]
			m.PaymentID = p.ID
			var desc, recv interface{}
			if m.Description != nil {
				desc = *m.Description
			}
			if m.ReceivedAmount != nil {
				recv = *m.ReceivedAmount
			}
			args = append(args, m.PaymentID, m.Type, m.Amount, desc, recv)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if len(p.OrderIDs) > 0 {
		query := `INSERT INTO payment_orders (payment_id, order_id) VALUES `
		args := make([]interface{}, 0, len(p.OrderIDs)*2)
		for i, oid := range p.OrderIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, p.ID, oid)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// GetActiveByTable returns the table's non-cancelled payment with methods
// and order links populated, or nil when the table has none.
func (r *PaymentRepo) GetActiveByTable(ctx context.Context, tableID uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE table_id = ? AND status <> ? LIMIT 1`
	var p model.Payment
	err := scanPayment(r.db.QueryRowContext(ctx, q, tableID, model.PaymentCancelado), &p)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.populate(ctx, []*model.Payment{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentFilter narrows List results.  Zero values mean "no filter".
// Dates are inclusive on both ends.
type PaymentFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
}

// List returns payments matching the filter, most recently paid first,
// with methods and order links populated.  Only per-table settlement
// records exist in this schema, so no legacy filtering is needed here.
func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments`
	var conds []string
	var args []interface{}
	if f.StartDate != nil && f.EndDate != nil {
		conds = append(conds, "paid_at BETWEEN ? AND ?")
		args = append(args, *f.StartDate, *f.EndDate)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY paid_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*model.Payment, 0, len(payments))
	for i := range payments {
		refs = append(refs, &payments[i])
	}
	if err := r.populate(ctx, refs); err != nil {
		return nil, err
	}
	return payments, nil
}

// populate loads methods and order links for the given payments in two
// queries, attaching them by payment id.
func (r *PaymentRepo) populate(ctx context.Context, payments []*model.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Payment, len(payments))
	placeholders := make([]string, 0, len(payments))
	args := make([]interface{}, 0, len(payments))
	for _, p := range payments {
		p.Methods = []model.PaymentMethod{}
		p.OrderIDs = []uint64{}
		index[p.ID] = p
		placeholders = append(placeholders, "?")
		args = append(args, p.ID)
	}
	in := strings.Join(placeholders, ",")

	mq := `SELECT id, payment_id, type, amount, description, received_amount
	       FROM payment_methods WHERE payment_id IN (` + in + `) ORDER BY payment_id, id`
	mrows, err := r.db.QueryContext(ctx, mq, args...)
	if err != nil {
		return err
	}
	defer mrows.Close()
	for mrows.Next() {
		var m model.PaymentMethod
		var desc sql.NullString
		var recv sql.NullFloat64
		if err := mrows.Scan(&m.ID, &m.PaymentID, &m.Type, &m.Amount, &desc, &recv); err != nil {
			return err
		}
		if desc.Valid {
			s := desc.String
			m.Description = &s
		}
		if recv.Valid {
			v := recv.Float64
			m.ReceivedAmount = &v
		}
		if p, ok := index[m.PaymentID]; ok {
			p.Methods = append(p.Methods, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return err
	}

	oq := `SELECT payment_id, order_id FROM payment_orders WHERE payment_id IN (` + in + `) ORDER BY payment_id, order_id`
	orows, err := r.db.QueryContext(ctx, oq, args...)
	if err != nil {
		return err
	}
	defer orows.Close()
	for orows.Next() {
		var pid, oid uint64
		if err := orows.Scan(&pid, &oid); err != nil {
			return err
		}
		if p, ok := index[pid]; ok {
			p.OrderIDs = append(p.OrderIDs, oid)
		}
	}
	return orows.Err()
}
