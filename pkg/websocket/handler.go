package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Options struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	MaxMessageSize    int64
	EnableCompression bool
	AllowedOrigins    []string
}

func (o Options) withDefaults() Options {
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4 << 20
	}
	return o
}

type Handler struct {
	hub      *Hub
	handler  MessageHandler
	upgrader websocket.Upgrader
	opts     Options
	ctx      context.Context
}

// NewHandler serves websocket connections. Inbound messages are passed to
// handler with ctx, which should live as long as the server.
func NewHandler(ctx context.Context, hub *Hub, handler MessageHandler, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		hub:     hub,
		handler: handler,
		opts:    opts,
		ctx:     ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    opts.ReadBufferSize,
			WriteBufferSize:   opts.WriteBufferSize,
			HandshakeTimeout:  opts.HandshakeTimeout,
			EnableCompression: opts.EnableCompression,
			CheckOrigin:       originChecker(opts.AllowedOrigins),
		},
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID, h.handler, h.opts)
	select {
	case h.hub.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.ctx)
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// native apps do not send an Origin header
		return origin == "" || set[origin]
	}
}
