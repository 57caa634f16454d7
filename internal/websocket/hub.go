package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/famledger/famledger/internal/access"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
	"github.com/famledger/famledger/internal/utils"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// SnapshotFunc produces the current content of one topic for one
// subscriber.
type SnapshotFunc func(identity access.Identity) (interface{}, error)

// Hub maintains the set of active clients and pushes collection
// snapshots to subscribers whenever a change event arrives. A client
// receives the full latest snapshot, never a diff; consecutive changes
// may be coalesced into a single push.
type Hub struct {
	resolver *access.Resolver
	users    services.UserService

	// Snapshot producers per topic. Register all topics before
	// serving; the map is read-only afterwards.
	snapshots map[models.Topic]SnapshotFunc

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	events     chan events.Event

	upgrader websocket.Upgrader
}

// NewHub creates a new hub and subscribes it to the change event bus.
func NewHub(bus *events.Bus, resolver *access.Resolver, users services.UserService) *Hub {
	upgrader := websocket.Upgrader{
		// Allow all origins for WebSocket connections
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	h := &Hub{
		resolver:   resolver,
		users:      users,
		snapshots:  make(map[models.Topic]SnapshotFunc),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan events.Event, 64),
		upgrader:   upgrader,
	}

	bus.Subscribe(func(evt events.Event) {
		select {
		case h.events <- evt:
		default:
			// Publishers must never stall on a slow hub.
			go func() { h.events <- evt }()
		}
	})

	return h
}

// RegisterSnapshot installs the snapshot producer for a topic.
func (h *Hub) RegisterSnapshot(topic models.Topic, fn SnapshotFunc) {
	h.snapshots[topic] = fn
}

// Run owns the client registry and routes change events to
// subscribers.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.done)
			}

		case evt := <-h.events:
			for c := range h.clients {
				c.offer(evt)
			}
		}
	}
}

// HandleWebSocket upgrades an HTTP connection to WebSocket. The
// request must already carry validated claims in its context.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.GetClaimsFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		conn:     ws,
		identity: access.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role},
		topics:   make(map[models.Topic]bool),
		dirty:    make(map[models.Topic]bool),
		notify:   make(chan struct{}, 1),
		send:     make(chan models.Message, 8),
		done:     make(chan struct{}),
	}

	h.register <- c
	go c.writePump(h)
	c.readPump(h)
}

// subscribe attaches a client to a topic after an authorization check
// and queues the initial snapshot.
func (h *Hub) subscribe(c *client, topic models.Topic) {
	if !topic.Valid() {
		c.enqueue(models.Message{Type: models.MessageError, Topic: topic, Content: "unknown topic"})
		return
	}
	if !h.authorize(c, topic) {
		c.enqueue(models.Message{Type: models.MessageError, Topic: topic, Content: "subscription denied"})
		return
	}

	c.mu.Lock()
	c.topics[topic] = true
	c.dirty[topic] = true
	c.mu.Unlock()
	c.wake()
}

// unsubscribe detaches a client from a topic. The empty snapshot
// marker tells the client to drop its cached copy so a later session
// cannot observe stale data.
func (h *Hub) unsubscribe(c *client, topic models.Topic) {
	c.mu.Lock()
	subscribed := c.topics[topic]
	delete(c.topics, topic)
	delete(c.dirty, topic)
	c.mu.Unlock()

	if subscribed {
		c.enqueue(models.Message{Type: models.MessageSnapshot, Topic: topic})
	}
}

// authorize decides whether a client may subscribe to a topic. The
// access state is resolved fresh on every subscribe, so approval or
// expiry changes take effect without reconnecting.
func (h *Hub) authorize(c *client, topic models.Topic) bool {
	switch topic {
	case models.TopicUsers:
		return h.resolver.IsAdmin(&c.identity)
	case models.TopicProfile:
		// Pending and rejected users still watch their own profile
		// to learn when their state changes.
		return true
	default:
		return h.resolver.ResolveFresh(&c.identity, h.users).Allowed()
	}
}

// client is one WebSocket connection. readPump is the sole reader and
// writePump the sole writer of conn.
type client struct {
	conn     *websocket.Conn
	identity access.Identity

	mu     sync.Mutex
	topics map[models.Topic]bool
	dirty  map[models.Topic]bool

	notify chan struct{}
	send   chan models.Message
	done   chan struct{}
}

// offer marks the client's copy of a topic stale when the event is
// relevant to it.
func (c *client) offer(evt events.Event) {
	c.mu.Lock()
	relevant := c.topics[evt.Topic] &&
		(evt.Topic == models.TopicUsers || evt.Owner == c.identity.UserID)
	if relevant {
		c.dirty[evt.Topic] = true
	}
	c.mu.Unlock()

	if relevant {
		c.wake()
	}
}

func (c *client) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *client) enqueue(msg models.Message) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case models.MessageSubscribe:
			h.subscribe(c, msg.Topic)
		case models.MessageUnsubscribe:
			h.unsubscribe(c, msg.Topic)
		}
	}
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-c.notify:
			if err := c.flushDirty(h); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flushDirty pushes the latest snapshot of every stale topic. Only the
// newest state is sent; intermediate states are skipped.
func (c *client) flushDirty(h *Hub) error {
	c.mu.Lock()
	topics := make([]models.Topic, 0, len(c.dirty))
	for topic := range c.dirty {
		topics = append(topics, topic)
	}
	c.dirty = make(map[models.Topic]bool)
	c.mu.Unlock()

	for _, topic := range topics {
		fn := h.snapshots[topic]
		if fn == nil {
			continue
		}

		content, err := fn(c.identity)
		if err != nil {
			slog.Error("Failed to build snapshot", "topic", topic, "error", err)
			continue
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		msg := models.Message{Type: models.MessageSnapshot, Topic: topic, Content: content}
		if err := c.conn.WriteJSON(msg); err != nil {
			return err
		}
	}
	return nil
}
