package ws

import (
	"net/http"
	"time"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authenticator validates the credentials passed in the query string
type Authenticator interface {
	ValidateToken(token string) (*model.OrganizationClaims, error)
	CheckAdminKey(key string) error
}

// Handler handles WebSocket connections
type Handler struct {
	hub  *Hub
	auth Authenticator
	log  *logger.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, auth Authenticator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{hub: hub, auth: auth, log: log}
}

// AdminWS handles GET /api/ws/admin?admin_key=
func (h *Handler) AdminWS(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.CheckAdminKey(r.URL.Query().Get("admin_key")); err != nil {
		http.Error(w, "invalid admin key", http.StatusUnauthorized)
		return
	}
	h.serve(w, r, &Connection{IsAdmin: true})
}

// OrganizationWS handles GET /api/ws/organization?token=
func (h *Handler) OrganizationWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	h.serve(w, r, &Connection{OrganizationID: claims.OrganizationID})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, conn *Connection) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn.Send = make(chan []byte, 256)
	conn.Hub = h.hub
	h.hub.Register(conn)

	s := &session{ws: wsConn, conn: conn, hub: h.hub, log: h.log}
	go s.push()
	go s.watch()
}

// session ties one upgraded socket to its hub connection. push owns all
// writes; watch owns all reads and the unregister on exit.
type session struct {
	ws   *websocket.Conn
	conn *Connection
	hub  *Hub
	log  *logger.Logger
}

func (s *session) write(kind int, payload []byte) error {
	s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(kind, payload)
}

// push forwards hub events and keeps the peer alive with pings. A closed
// Send channel means the hub dropped the connection.
func (s *session) push() {
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()
	defer s.ws.Close()

	for {
		var err error
		select {
		case event, open := <-s.conn.Send:
			if !open {
				s.write(websocket.CloseMessage, []byte{})
				return
			}
			err = s.write(websocket.TextMessage, event)
		case <-keepalive.C:
			err = s.write(websocket.PingMessage, nil)
		}
		if err != nil {
			s.log.Debug("websocket write failed", "organization_id", s.conn.OrganizationID, "error", err)
			return
		}
	}
}

// watch discards inbound frames. Pongs extend the read deadline, so a peer
// that stops answering pings is dropped after pongWait.
func (s *session) watch() {
	defer func() {
		s.hub.Unregister(s.conn)
		s.ws.Close()
	}()

	extend := func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	}
	s.ws.SetReadLimit(maxMessageSize)
	extend("")
	s.ws.SetPongHandler(extend)

	for {
		_, _, err := s.ws.NextReader()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			s.log.Debug("websocket closed", "organization_id", s.conn.OrganizationID, "error", err)
		}
		return
	}
}
