package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/config"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
	"github.com/marcussviniciusa/recantoverdev5/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Notifier *notify.Publisher
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, n *notify.Publisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Notifier: n}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // garcom | recepcionista
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type authData struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a staff account. The route is restricted to
// receptionists; waiters cannot add accounts.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Username, email e senha são obrigatórios"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleRecepcionista {
		role = model.RoleGarcom
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Email já cadastrado"})
		}
		log.Printf("auth: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao criar usuário"})
	}

	n, audiences := notify.UserCreated(req.Username, role)
	h.Notifier.Publish(ctx, n, audiences)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data": echo.Map{
			"user": userPart{ID: uid, Username: req.Username, Email: req.Email, Role: role},
		},
	})
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Email e senha são obrigatórios"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Credenciais inválidas"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar usuário"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Credenciais inválidas"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao emitir token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao emitir token"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao salvar sessão"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": authData{
			User:    userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
			Access:  tokenPart{Token: access.Token, Expires: access.Exp},
			Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
		},
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "refresh_token é obrigatório"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Sessão inválida"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao carregar usuário"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao emitir token"})
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao emitir token"})
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao salvar sessão"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": authData{
			User:    userPart{ID: userID, Username: u.Username, Email: u.Email, Role: u.Role},
			Access:  tokenPart{Token: access.Token, Expires: access.Exp},
			Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
		},
	})
}

// Logout revokes refresh tokens for the current session. With a
// refresh_token in the body only that token is revoked; without one all
// sessions of the authenticated user are revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Sessão inválida"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao encerrar sessão"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Não autorizado"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao encerrar sessão"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers lists active staff accounts of a role (default garcom).
// Receptionists use it to pick a waiter when assigning tables.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	role := strings.ToLower(strings.TrimSpace(c.QueryParam("role")))
	if role == "" {
		role = model.RoleGarcom
	}
	if role != model.RoleGarcom && role != model.RoleRecepcionista {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Role inválida"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListByRole(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar usuários"})
	}

	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": out}})
}

// Me returns the claims of the authenticated staff member.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"user_id":  c.Get("user_id"),
			"username": getUsername(c),
			"role":     getRole(c),
		},
	})
}
