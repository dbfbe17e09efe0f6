package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
)

// NotificationHandler exposes the manual announcement endpoint.
type NotificationHandler struct {
	Notifier *notify.Publisher
}

func NewNotificationHandler(n *notify.Publisher) *NotificationHandler {
	return &NotificationHandler{Notifier: n}
}

type broadcastReq struct {
	Message string `json:"message"`
}

// Broadcast publishes a system announcement to every connected staff
// member (recepcionista only). Delivery is best-effort like every other
// notification.
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	var req broadcastReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Mensagem é obrigatória"})
	}

	n, audiences := notify.SystemBroadcast(req.Message)
	h.Notifier.Publish(c.Request().Context(), n, audiences)

	return c.JSON(http.StatusAccepted, echo.Map{"success": true, "data": echo.Map{"message": "Aviso enviado"}})
}
