package ws

import (
	"encoding/json"
	"sync"

	"digitalmaturity/internal/logger"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents a WebSocket connection. OrganizationID is empty
// for admin connections.
type Connection struct {
	OrganizationID string
	IsAdmin        bool
	Send           chan []byte
	Hub            *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	ToAdmins       bool
	OrganizationID string
	Data           []byte
}

// Hub manages the admin feed and the per-organization feeds
type Hub struct {
	admins map[*Connection]struct{}
	orgs   map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	log *logger.Logger
}

// NewHub creates a hub and starts its event loop
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	h := &Hub{
		admins:     make(map[*Connection]struct{}),
		orgs:       make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for conn := range h.admins {
				close(conn.Send)
			}
			for _, conns := range h.orgs {
				for conn := range conns {
					close(conn.Send)
				}
			}
			h.admins = map[*Connection]struct{}{}
			h.orgs = map[string]map[*Connection]struct{}{}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsAdmin {
				h.admins[conn] = struct{}{}
				h.log.Debug("admin connected")
			} else {
				if h.orgs[conn.OrganizationID] == nil {
					h.orgs[conn.OrganizationID] = make(map[*Connection]struct{})
				}
				h.orgs[conn.OrganizationID][conn] = struct{}{}
				h.log.Debug("organization connected", "organization_id", conn.OrganizationID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsAdmin {
				if _, ok := h.admins[conn]; ok {
					delete(h.admins, conn)
					close(conn.Send)
				}
			} else if conns, ok := h.orgs[conn.OrganizationID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.orgs, conn.OrganizationID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := h.admins
			if !msg.ToAdmins {
				targets = h.orgs[msg.OrganizationID]
			}
			for conn := range targets {
				select {
				case conn.Send <- msg.Data:
				default:
					// slow consumer, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close stops the event loop and closes every connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Clients returns the number of admin and organization connections
func (h *Hub) Clients() (admins, organizations int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.orgs {
		organizations += len(conns)
	}
	return len(h.admins), organizations
}

// BroadcastToAdmins sends a message to every admin (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{ToAdmins: true}, msgType, payload)
}

// BroadcastToOrganization sends a message to one organization's clients (implements service.Broadcaster)
func (h *Hub) BroadcastToOrganization(orgID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{OrganizationID: orgID}, msgType, payload)
}

func (h *Hub) enqueue(msg *BroadcastMessage, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("failed to encode ws payload", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(&Message{Type: msgType, Payload: raw})
	if err != nil {
		h.log.Warn("failed to encode ws message", "type", msgType, "error", err)
		return
	}
	msg.Data = data

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn("ws broadcast queue full, message dropped", "type", msgType)
	}
}
