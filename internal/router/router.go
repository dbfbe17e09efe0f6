// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/handler"
	"github.com/marcussviniciusa/recantoverdev5/internal/middleware"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Login, refresh and
// logout are open; account registration is restricted to receptionists
// and /api/me requires any valid session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh_token in the body or a bearer token.
	g.POST("/logout", a.Logout, middleware.JWTAuthOptional(jwtSecret))
	g.POST("/register", a.Register,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRecepcionista),
	)

	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret))
	e.GET("/api/users", a.ListUsers,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRecepcionista),
	)
}
