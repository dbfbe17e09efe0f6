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

func newPaymentMock(t *testing.T) (*PaymentRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPaymentRepo(db), mock
}

func TestActiveExistsTx(t *testing.T) {
	repo, mock := newPaymentMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	exists, err := repo.ActiveExistsTx(ctx, tx, 3)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateTx(t *testing.T) {
	repo, mock := newPaymentMock(t)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(uint64(3), "Família Silva", 45.80, model.PaymentPago, paidAt, 4.20).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec("INSERT INTO payment_methods").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("INSERT INTO payment_orders").
		WithArgs(uint64(77), uint64(9), uint64(77), uint64(10)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	ident := "Família Silva"
	fifty := 50.0
	p := &model.Payment{
		TableID:             3,
		TableIdentification: &ident,
		TotalAmount:         45.80,
		Status:              model.PaymentPago,
		PaidAt:              paidAt,
		ChangeAmount:        4.20,
		Methods: []model.PaymentMethod{
			{Type: "dinheiro", Amount: 25.80, ReceivedAmount: &fifty},
			{Type: "pix", Amount: 20.00},
		},
		OrderIDs: []uint64{9, 10},
	}
	require.NoError(t, repo.CreateTx(ctx, tx, p))
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(77), p.ID)
	assert.Equal(t, uint64(77), p.Methods[0].PaymentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveByTableNone(t *testing.T) {
	repo, mock := newPaymentMock(t)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE table_id").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.GetActiveByTable(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, p)
}
