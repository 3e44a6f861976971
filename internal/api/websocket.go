package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for local dashboard
	},
}

// subscriber is one dashboard websocket connection, optionally filtered to
// a single pool's sweep events via the "poolId" query parameter.
type subscriber struct {
	conn   *websocket.Conn
	poolID string // empty means "every pool"
}

// sweepEnvelope extracts just enough of a models.SweepResult to route it to
// the subscribers that asked for that pool, without the Hub importing the
// relayer/models packages.
type sweepEnvelope struct {
	PoolID string `json:"poolId"`
}

// Hub maintains the set of dashboard websocket clients and fans out sweep
// events, filtering each event to the pool(s) a client subscribed to.
type Hub struct {
	clients   map[*websocket.Conn]*subscriber
	broadcast chan []byte
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]*subscriber),
	}
}

// Run drains broadcast sweep events and fans each one out to every
// subscriber whose pool filter matches (or who filtered on nothing).
func (h *Hub) Run() {
	for message := range h.broadcast {
		var env sweepEnvelope
		_ = json.Unmarshal(message, &env) // unparseable payloads still go to unfiltered subscribers

		h.mutex.Lock()
		for conn, sub := range h.clients {
			if sub.poolID != "" && sub.poolID != env.PoolID {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Websocket write error: %v", err)
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request and registers the connection against the
// pool the client requested via ?poolId=, or every pool's sweeps if absent.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	poolID := c.Query("poolId")
	sub := &subscriber{conn: conn, poolID: poolID}

	h.mutex.Lock()
	h.clients[conn] = sub
	h.mutex.Unlock()

	if poolID != "" {
		log.Printf("New WebSocket client connected, filtered to pool %s. Total clients: %d", poolID, len(h.clients))
	} else {
		log.Printf("New WebSocket client connected to all pool sweeps. Total clients: %d", len(h.clients))
	}

	// Keep alive loop (we only care about pushing down, but we must read to handle disconnects)
	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("WebSocket client disconnected. Total clients: %d", len(h.clients))
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				break
			}
		}
	}()
}

// Broadcast queues a sweep event (JSON-encoded models.SweepResult) for
// delivery to every matching subscriber.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}
