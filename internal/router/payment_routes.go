package router

import (
	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/handler"
	"github.com/marcussviniciusa/recantoverdev5/internal/middleware"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// RegisterPayments registers the settlement endpoints under /api.  The
// per-table routes are open to both roles; the payment listing is a
// receptionist report.  The retired generic create route stays mapped so
// old clients get an explicit 410 instead of a 404.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/api/payments",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGarcom, model.RoleRecepcionista),
	)

	g.POST("/mesa/:tableId", p.RegisterForTable)
	g.GET("/mesa/:tableId", p.BillForTable)

	g.POST("", p.LegacyCreate) // 410 Gone
	g.GET("", p.List, middleware.RequireRole(model.RoleRecepcionista))
}
