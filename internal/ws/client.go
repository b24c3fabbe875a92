package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 4 * 1024
)

// Client представляет одно подключение администратора.
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte
}

// NewClient создаёт клиента поверх установленного соединения.
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		conn: conn,
		hub:  hub,
		send: make(chan []byte, 16),
	}
}

// Run запускает обработку соединения и блокируется до его закрытия.
// Отмена контекста срезает дедлайн чтения, и readPump завершается.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	c.readPump()
}

// Close закрывает соединение и снимает клиента с учёта в хабе.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

// readPump вычитывает входящие кадры. Клиент ничего не присылает,
// чтение нужно только для обработки pong и закрытия.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
