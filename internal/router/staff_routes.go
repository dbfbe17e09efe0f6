package router

import (
	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/handler"
	"github.com/marcussviniciusa/recantoverdev5/internal/middleware"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// RegisterStaff registers the table, product and order endpoints under
// /api.  Every route requires a staff session; mutations on tables and
// products are additionally restricted to receptionists.  browseCache
// may be nil when Redis is unavailable; product browse GETs run behind
// it when present.
func RegisterStaff(e *echo.Echo, t *handler.TableHandler, p *handler.ProductHandler, o *handler.OrderHandler, n *handler.NotificationHandler, jwtSecret string, browseCache echo.MiddlewareFunc) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGarcom, model.RoleRecepcionista),
	)
	receptionist := middleware.RequireRole(model.RoleRecepcionista)

	// ---- Tables ----
	g.GET("/tables", t.List)
	g.GET("/tables/:id", t.Get)
	g.POST("/tables", t.Create, receptionist)
	g.PUT("/tables/:id", t.Update)
	g.DELETE("/tables/:id", t.Delete, receptionist)

	// ---- Products ----
	if browseCache != nil {
		g.GET("/products", p.List, browseCache)
		g.GET("/products/categories", p.Categories, browseCache)
		g.GET("/products/:id", p.Get, browseCache)
	} else {
		g.GET("/products", p.List)
		g.GET("/products/categories", p.Categories)
		g.GET("/products/:id", p.Get)
	}
	g.POST("/products", p.Create, receptionist)
	g.PUT("/products/:id", p.Update, receptionist)
	g.DELETE("/products/:id", p.Delete, receptionist)

	// ---- Orders ----
	g.GET("/orders", o.List)
	g.GET("/orders/:id", o.Get)
	g.POST("/orders", o.Create, middleware.RequireRole(model.RoleGarcom))
	g.PUT("/orders/:id", o.UpdateStatus)

	// ---- Announcements ----
	g.POST("/notifications/broadcast", n.Broadcast, receptionist)
}
