// Package wsapi is the push surface described in spec.md §6.2: one
// websocket connection per client, subscribed to a room's actor and
// streaming its WireEvent stream down as JSON text frames. Grounded on the
// teacher's routes.go upgrader + services.Hub.Client readPump/writePump
// pair, generalised from the teacher's single shared hub to one
// subscription per connection against internal/roomactor.Actor.Subscribe.
package wsapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/openword/roundserver/internal/registry"
	"github.com/openword/roundserver/internal/roomactor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
)

// readRateLimit bounds how often a single connection may send inbound
// frames. The push surface is otherwise read-only from the client; this
// only guards against a misbehaving or hostile client flooding the server
// with frames.
const readRateLimit = rate.Limit(5)
const readRateBurst = 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server upgrades /ws/:code connections and bridges them to a room actor's
// subscriber hub.
type Server struct {
	registry *registry.Registry
	log      zerolog.Logger
}

func NewServer(reg *registry.Registry, log zerolog.Logger) *Server {
	return &Server{registry: reg, log: log}
}

// Register wires the /ws/:code route onto an existing gin engine, kept
// distinct from httpapi.Server so the control surface and push surface
// remain independently testable, per SPEC_FULL.md's transport split.
func (s *Server) Register(router *gin.Engine) {
	router.GET("/ws/:code", s.handleUpgrade)
}

func (s *Server) handleUpgrade(c *gin.Context) {
	code := c.Param("code")
	actor, ok := s.registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("room", code).Msg("websocket upgrade failed")
		return
	}

	events, unsubscribe := actor.Subscribe()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.writePump(conn, events, done)
	s.readPump(conn, unsubscribe, done)
}

// writePump drains the actor's event channel onto the socket and keeps the
// connection alive with periodic pings, mirroring the teacher's
// Client.writePump.
func (s *Server) writePump(conn *websocket.Conn, events <-chan roomactor.WireEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to marshal wire event")
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump discards inbound frames (the push surface takes no client
// commands, per spec.md §6.2 — writes go through internal/httpapi) but
// must keep reading to process control frames and detect disconnects, per
// gorilla/websocket's documented pattern. A rate limiter drops a
// misbehaving client rather than letting it spin the loop unbounded.
func (s *Server) readPump(conn *websocket.Conn, unsubscribe func(), done chan<- struct{}) {
	limiter := rate.NewLimiter(readRateLimit, readRateBurst)
	defer func() {
		unsubscribe()
		close(done)
		conn.Close()
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			return
		}
	}
}
