package ws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

func dialTestServer(t *testing.T, handler http.HandlerFunc) (*websocket.Conn, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("не удалось подключиться: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, srv
}

func TestClient_RunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(testLog())
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	upgrader := websocket.Upgrader{}

	dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub)
		hub.Register(client)
		client.Run(ctx)
		close(done)
	})

	for i := 0; i < 50 && hub.ClientCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.ClientCount())

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}

	for i := 0; i < 50 && hub.ClientCount() != 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestClient_RunStopsWhenPeerCloses(t *testing.T) {
	hub := NewHub(testLog())
	go hub.Run()

	done := make(chan struct{})
	upgrader := websocket.Upgrader{}

	conn, _ := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		serverConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(serverConn, hub)
		hub.Register(client)
		client.Run(context.Background())
		close(done)
	})

	conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после разрыва соединения")
	}
}
