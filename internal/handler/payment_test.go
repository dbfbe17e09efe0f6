package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
)

const (
	orderColumns = "id, table_id, waiter_id, status, total_amount, observations, estimated_time, payment_id, created_at, updated_at"
	tableColumns = "id, number, capacity, status, current_customers, assigned_waiter, identification, created_at, updated_at"
)

func newPaymentHandler(t *testing.T) (*PaymentHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPaymentHandler(
		repository.NewPaymentRepo(db),
		repository.NewOrderRepo(db),
		repository.NewTableRepo(db),
		notify.NewPublisher(""), // no broker in tests; publishes are no-ops
	), mock
}

func settlementContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/mesa/3", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tableId")
	c.SetParamValues("3")
	c.Set("user_id", uint64(5))
	c.Set("role", model.RoleGarcom)
	return c, rec
}

func occupiedTableRow() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(strings.Split(tableColumns, ", ")).
		AddRow(3, 4, 4, model.TableOcupada, 2, 5, "Família Silva", now, now)
}

func deliveredOrderRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(strings.Split(orderColumns, ", ")).
		AddRow(9, 3, 5, model.OrderEntregue, 25.80, nil, 25, nil, now, now).
		AddRow(10, 3, 5, model.OrderEntregue, 20.00, nil, 10, nil, now, now)
}

func TestRegisterForTableSettlesEverything(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE table_id").
		WithArgs(uint64(3), model.OrderEntregue).
		WillReturnRows(deliveredOrderRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec("INSERT INTO payment_methods").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("INSERT INTO payment_orders").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("UPDATE orders SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE tables").
		WithArgs(model.TableDisponivel, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"paymentMethods":[{"type":"dinheiro","amount":25.80,"receivedAmount":50.00},{"type":"pix","amount":20.00}]}`
	c, rec := settlementContext(body)
	require.NoError(t, h.RegisterForTable(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Payment paymentResp `json:"payment"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, uint64(77), resp.Data.Payment.ID)
	assert.Equal(t, 45.80, resp.Data.Payment.TotalAmount)
	assert.Equal(t, model.PaymentPago, resp.Data.Payment.Status)
	assert.Equal(t, 24.20, resp.Data.Payment.ChangeAmount) // 50 tendered on a 25.80 cash share
	assert.Equal(t, []uint64{9, 10}, resp.Data.Payment.OrderIDs)
	require.NotNil(t, resp.Data.Payment.TableIdentification)
	assert.Equal(t, "Família Silva", *resp.Data.Payment.TableIdentification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForTableAmountMismatch(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE table_id").
		WithArgs(uint64(3), model.OrderEntregue).
		WillReturnRows(deliveredOrderRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	body := `{"paymentMethods":[{"type":"dinheiro","amount":45.00}]}`
	c, rec := settlementContext(body)
	require.NoError(t, h.RegisterForTable(c))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "(45.00)")
	assert.Contains(t, rec.Body.String(), "(45.80)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForTableDuplicatePayment(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE table_id").
		WithArgs(uint64(3), model.OrderEntregue).
		WillReturnRows(deliveredOrderRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM payments").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	body := `{"paymentMethods":[{"type":"pix","amount":45.80}]}`
	c, rec := settlementContext(body)
	require.NoError(t, h.RegisterForTable(c))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Já existe um pagamento")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForTableNoDeliveredOrders(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE table_id").
		WithArgs(uint64(3), model.OrderEntregue).
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")))
	mock.ExpectRollback()

	body := `{"paymentMethods":[{"type":"pix","amount":45.80}]}`
	c, rec := settlementContext(body)
	require.NoError(t, h.RegisterForTable(c))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não há pedidos entregues")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForTableUnknownTable(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(strings.Split(tableColumns, ", ")))
	mock.ExpectRollback()

	body := `{"paymentMethods":[{"type":"pix","amount":10.00}]}`
	c, rec := settlementContext(body)
	require.NoError(t, h.RegisterForTable(c))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyCreateIsGone(t *testing.T) {
	h, _ := newPaymentHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.LegacyCreate(e.NewContext(req, rec)))

	require.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/payments/mesa/:tableId")
}

// The bill summary exposes the advisory per-person split next to the raw
// totals the settlement actually validates against.
func TestBillForTableAdvisorySplit(t *testing.T) {
	h, mock := newPaymentHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE table_id").
		WithArgs(uint64(3)).
		WillReturnRows(deliveredOrderRows())
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id IN").
		WithArgs(uint64(9), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "unit_price", "quantity", "total_price", "observations"}))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE table_id").
		WithArgs(uint64(3), model.PaymentCancelado).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/mesa/3?people=3&tip=5.00", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tableId")
	c.SetParamValues("3")

	require.NoError(t, h.BillForTable(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Summary struct {
				TotalOrders  int     `json:"totalOrders"`
				TotalAmount  float64 `json:"totalAmount"`
				UnpaidAmount float64 `json:"unpaidAmount"`
				PaidAmount   float64 `json:"paidAmount"`
				CanPayNow    bool    `json:"canPayNow"`
			} `json:"summary"`
			Split struct {
				People    int     `json:"people"`
				Tip       float64 `json:"tip"`
				PerPerson float64 `json:"perPerson"`
			} `json:"split"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Summary.TotalOrders)
	assert.Equal(t, 45.80, resp.Data.Summary.TotalAmount)
	assert.Equal(t, 45.80, resp.Data.Summary.UnpaidAmount)
	assert.True(t, resp.Data.Summary.CanPayNow)
	assert.Equal(t, 16.93, resp.Data.Split.PerPerson)
	// Three people paying the advisory figure would hand over 50.79, one
	// cent short of the tipped bill; settlement only ever checks 45.80.
	assert.NotEqual(t, resp.Data.Summary.UnpaidAmount+resp.Data.Split.Tip, resp.Data.Split.PerPerson*3)
	assert.NoError(t, mock.ExpectationsWereMet())
}
