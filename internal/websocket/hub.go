package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only send small
	// control messages (subscribe, ping).
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the dashboard origin once it is deployed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected dashboard clients and fans analysis
// progress events out to them. It is the ProgressSink handed to the
// analysis pipeline.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Last event per run so late subscribers catch up immediately.
	snapshots map[string]runSnapshot

	// Mutex for thread-safe access to clients and snapshots
	mu sync.RWMutex

	validator *MessageValidator
	logger    *zap.Logger
}

type runSnapshot struct {
	payload  []byte
	finished bool
	at       time.Time
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		snapshots:  make(map[string]runSnapshot),
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("clientID", client.id),
				zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

// Progress broadcasts a stage progress event to subscribed clients.
func (h *Hub) Progress(runID, stage string, percent float64) {
	payload, err := json.Marshal(CreateProgressMessage(runID, stage, percent))
	if err != nil {
		h.logger.Error("Failed to marshal progress message", zap.Error(err))
		return
	}
	h.publish(runID, payload, false)
}

// Finished broadcasts the terminal event of a run to subscribed clients.
func (h *Hub) Finished(runID, reportID string, runErr error) {
	payload, err := json.Marshal(CreateFinishedMessage(runID, reportID, runErr))
	if err != nil {
		h.logger.Error("Failed to marshal finished message", zap.Error(err))
		return
	}
	h.publish(runID, payload, true)
}

func (h *Hub) publish(runID string, payload []byte, terminal bool) {
	h.mu.Lock()
	h.snapshots[runID] = runSnapshot{payload: payload, finished: terminal, at: time.Now()}
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		if client.wantsRun(runID) {
			targets = append(targets, client)
		}
	}
	h.mu.Unlock()

	data := WriteData{Type: websocket.TextMessage, Payload: payload}
	for _, client := range targets {
		if !client.trySend(data) {
			// Slow or departing consumer; drop the event rather than block
			// the pipeline.
			h.logger.Warn("Dropping event for client",
				zap.String("clientID", client.id),
				zap.String("runID", runID))
		}
	}
}

// snapshotFor returns the last published event for a run, if any.
func (h *Hub) snapshotFor(runID string) ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap, ok := h.snapshots[runID]
	return snap.payload, ok
}

// expireSnapshots drops run snapshots whose terminal event is older than
// the retention window. Returns the number of runs pruned.
func (h *Hub) expireSnapshots(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	h.mu.Lock()
	defer h.mu.Unlock()
	pruned := 0
	for runID, snap := range h.snapshots {
		if snap.finished && snap.at.Before(cutoff) {
			delete(h.snapshots, runID)
			pruned++
		}
	}
	return pruned
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Connection ID, assigned at upgrade time.
	id string

	// Authenticated dashboard user.
	userID string

	// Runs this client asked for. Empty means every run.
	subscriptions map[string]bool

	// Set once the hub has closed send; guarded by mutex so a concurrent
	// publish never writes to the closed channel.
	closed bool

	// Logger
	logger *zap.Logger

	mutex sync.Mutex
}

// trySend queues an outbound message unless the client has been closed or
// its buffer is full. Reports whether the message was queued.
func (c *Client) trySend(data WriteData) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once, stopping writePump.
func (c *Client) closeSend() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) wantsRun(runID string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[runID]
}

func (c *Client) subscribe(runID string) {
	c.mutex.Lock()
	c.subscriptions[runID] = true
	c.mutex.Unlock()
}

// HandleWebSocketWithAuth handles websocket requests with a pre-authenticated user ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan WriteData, 256),
		id:            uuid.NewString(),
		userID:        userID,
		subscriptions: make(map[string]bool),
		logger:        logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps control messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}
		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
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

// processMessage processes incoming control messages from the dashboard
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected client message", zap.Error(err))
		c.reply(CreateErrorMessage("invalid_message", "message rejected", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *SubscribeMessage:
		c.subscribe(msg.RunID)
		c.logger.Info("Client subscribed",
			zap.String("clientID", c.id),
			zap.String("runID", msg.RunID))
		// Replay the last known state so the client is not blind until
		// the next event.
		if payload, ok := c.hub.snapshotFor(msg.RunID); ok {
			c.trySend(WriteData{Type: websocket.TextMessage, Payload: payload})
		}
	case *PingMessage:
		c.reply(CreatePongMessage(msg.Data))
	}
}

func (c *Client) reply(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal reply", zap.Error(err))
		return
	}
	c.trySend(WriteData{Type: websocket.TextMessage, Payload: payload})
}
