package ws

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub рассылает события заказов и платежей подключённым администраторам
// кухни. Подключаются только администраторы, поэтому адресации по
// пользователям нет: каждое событие уходит всем клиентам.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	log        *logrus.Entry
}

// NewHub создаёт хаб.
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
		log:        log,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast отправляет событие всем подключённым администраторам.
// Поле "type" содержит имя события, "data" — полезную нагрузку.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload := map[string]interface{}{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Не удалось сериализовать событие")
		return
	}

	h.broadcast <- raw
}

// ClientCount возвращает число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Клиент не успевает читать, закрываем его вне блокировки.
			go client.Close()
		}
	}
}
