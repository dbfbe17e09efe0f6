package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

func newMockDB(t *testing.T) (*OrderRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepo(db), mock
}

func TestOrderCreateTx(t *testing.T) {
	repo, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(uint64(1), uint64(5), model.OrderPreparando, 45.80, nil, uint32(25)).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectQuery("SELECT created_at, updated_at FROM orders").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := repo.DB().BeginTx(ctx, nil)
	require.NoError(t, err)

	order := &model.Order{
		TableID:       1,
		WaiterID:      5,
		Status:        model.OrderPreparando,
		TotalAmount:   45.80,
		EstimatedTime: 25,
		Items: []model.OrderItem{
			{ProductID: 2, ProductName: "Picanha", UnitPrice: 12.90, Quantity: 2, TotalPrice: 25.80},
			{ProductID: 3, ProductName: "Suco", UnitPrice: 20.00, Quantity: 1, TotalPrice: 20.00},
		},
	}
	require.NoError(t, repo.CreateTx(ctx, tx, order))
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(9), order.ID)
	assert.Equal(t, uint64(9), order.Items[0].OrderID)
	assert.Equal(t, now, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCAS(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(model.OrderPronto, uint64(9), model.OrderPreparando).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatusCAS(context.Background(), 9, model.OrderPreparando, model.OrderPronto)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCASConflict(t *testing.T) {
	repo, mock := newMockDB(t)

	// Zero rows affected: another request already moved the order.
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(model.OrderEntregue, uint64(9), model.OrderPronto).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusCAS(context.Background(), 9, model.OrderPronto, model.OrderEntregue)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidTxReportsFlippedCount(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	// Only one of the two orders was still entregue at flip time.
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(model.OrderPago, uint64(77), uint64(9), uint64(10), model.OrderEntregue).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := repo.DB().BeginTx(ctx, nil)
	require.NoError(t, err)

	n, err := repo.MarkPaidTx(ctx, tx, []uint64{9, 10}, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidTxNoOrders(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := repo.DB().BeginTx(ctx, nil)
	require.NoError(t, err)

	n, err := repo.MarkPaidTx(ctx, tx, nil, 77)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, tx.Rollback())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
