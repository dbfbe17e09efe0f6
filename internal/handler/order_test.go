package handler

import (
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

func newOrderHandler(t *testing.T) (*OrderHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewOrderHandler(
		repository.NewOrderRepo(db),
		repository.NewTableRepo(db),
		repository.NewProductRepo(db),
		notify.NewPublisher(""),
	), mock
}

func statusUpdateContext(orderID, body, role string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+orderID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(orderID)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, rec
}

func orderRow(status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(strings.Split(orderColumns, ", ")).
		AddRow(9, 3, 5, status, 45.80, nil, 25, nil, now, now)
}

func emptyItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "unit_price", "quantity", "total_price", "observations"})
}

func TestUpdateStatusDeliverHappyPath(t *testing.T) {
	h, mock := newOrderHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(uint64(9)).
		WillReturnRows(orderRow(model.OrderPronto))
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id IN").
		WithArgs(uint64(9)).
		WillReturnRows(emptyItemRows())
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(model.OrderEntregue, uint64(9), model.OrderPronto).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// table lookup feeds the notification payload
	mock.ExpectQuery("SELECT (.+) FROM tables WHERE id").
		WithArgs(uint64(3)).
		WillReturnRows(occupiedTableRow())

	c, rec := statusUpdateContext("9", `{"status":"entregue"}`, model.RoleGarcom, 5)
	require.NoError(t, h.UpdateStatus(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"entregue"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusBackwardMoveConflicts(t *testing.T) {
	h, mock := newOrderHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(uint64(9)).
		WillReturnRows(orderRow(model.OrderEntregue))
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id IN").
		WithArgs(uint64(9)).
		WillReturnRows(emptyItemRows())

	c, rec := statusUpdateContext("9", `{"status":"pronto"}`, model.RoleRecepcionista, 1)
	require.NoError(t, h.UpdateStatus(c))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transição de status inválida")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRoleRules(t *testing.T) {
	tests := []struct {
		name   string
		status string
		role   string
	}{
		{"waiter cannot mark ready", model.OrderPronto, model.RoleGarcom},
		{"receptionist cannot mark delivered", model.OrderEntregue, model.RoleRecepcionista},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newOrderHandler(t)
			c, rec := statusUpdateContext("9", `{"status":"`+tt.status+`"}`, tt.role, 5)
			require.NoError(t, h.UpdateStatus(c))
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestUpdateStatusPagoIsReserved(t *testing.T) {
	h, _ := newOrderHandler(t)

	c, rec := statusUpdateContext("9", `{"status":"pago"}`, model.RoleRecepcionista, 1)
	require.NoError(t, h.UpdateStatus(c))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "endpoint de pagamentos")
}

func TestUpdateStatusLostRace(t *testing.T) {
	h, mock := newOrderHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(uint64(9)).
		WillReturnRows(orderRow(model.OrderPreparando))
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id IN").
		WithArgs(uint64(9)).
		WillReturnRows(emptyItemRows())
	// zero rows affected: the order moved between read and update
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(model.OrderPronto, uint64(9), model.OrderPreparando).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := statusUpdateContext("9", `{"status":"pronto"}`, model.RoleRecepcionista, 1)
	require.NoError(t, h.UpdateStatus(c))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
