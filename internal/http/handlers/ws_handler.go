package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/ws"
)

// WSHandler апгрейдит соединение и подключает администратора к хабу.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewWSHandler создаёт хэндлер. Проверка origin повторяет список CORS.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string, log *logrus.Entry) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
		log: log,
	}
}

// Serve обрабатывает GET /ws. Ставится за AuthMiddleware и AdminOnly.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("Не удалось установить WebSocket соединение")
		return
	}

	client := ws.NewClient(conn, h.hub)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
