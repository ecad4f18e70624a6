package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mvartia/marquee/internal/domain/slide"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = 54 * time.Second
)

// QueueUpdate is the message pushed to queue watchers after every
// committed mutation: the full reconciled slide order.
type QueueUpdate struct {
	Queue   string        `json:"queue"`
	Removed bool          `json:"removed,omitempty"`
	Slides  []slide.Slide `json:"slides"`
}

// WatchHub fans queue updates out to websocket subscribers, grouped by
// queue name. The signage player subscribes to the queue it renders and
// receives the committed order without polling.
type WatchHub struct {
	mu      sync.RWMutex
	clients map[string]map[*watchClient]bool
}

// NewWatchHub creates an empty hub.
func NewWatchHub() *WatchHub {
	return &WatchHub{clients: make(map[string]map[*watchClient]bool)}
}

// Publish sends an update to every subscriber of the queue. Slow
// subscribers are dropped rather than blocking the publisher.
func (h *WatchHub) Publish(queueName string, update QueueUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[queueName] {
		select {
		case client.send <- payload:
		default:
			go h.unregister(client)
		}
	}
}

func (h *WatchHub) register(c *watchClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.queueName] == nil {
		h.clients[c.queueName] = make(map[*watchClient]bool)
	}
	h.clients[c.queueName][c] = true
}

func (h *WatchHub) unregister(c *watchClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[c.queueName]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.queueName)
	}
}

type watchClient struct {
	hub       *WatchHub
	conn      *websocket.Conn
	send      chan []byte
	queueName string
}

// readPump drains the connection to detect disconnects; watchers never
// send meaningful messages.
func (c *watchClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(watchPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *watchClient) writePump() {
	ticker := time.NewTicker(watchPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var watchUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleQueueWatch upgrades the connection and subscribes it to the named
// queue, sending the current committed order as the first message.
func (s *Server) handleQueueWatch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}
	q, err := s.queues.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &watchClient{
		hub:       s.hub,
		conn:      conn,
		send:      make(chan []byte, 16),
		queueName: name,
	}
	s.hub.register(client)

	slides := q.Slides
	if slides == nil {
		slides = []slide.Slide{}
	}
	if initial, err := json.Marshal(QueueUpdate{Queue: name, Slides: slides}); err == nil {
		client.send <- initial
	}

	go client.writePump()
	go client.readPump()
}
