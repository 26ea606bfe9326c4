package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler MessageHandler
	opts    Options
	UserID  string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, handler MessageHandler, opts Options) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		handler: handler,
		opts:    opts,
		UserID:  userID,
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
		return nil
	})

	log := c.hub.log.WithUserID(c.UserID)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("Websocket read failed")
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.sendToClient(c, c.errorMessage("invalid message"))
			continue
		}

		if c.handler == nil {
			continue
		}
		if err := c.handler.HandleMessage(ctx, c.UserID, msg); err != nil {
			log.WithError(err).WithField("type", msg.Type).Debug("Websocket message rejected")
			c.hub.sendToClient(c, c.errorMessage(err.Error()))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
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
			// one JSON document per frame so clients can parse each directly
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) errorMessage(text string) Message {
	return Message{
		Type:      TypeError,
		UserID:    c.UserID,
		Timestamp: c.hub.now().Unix(),
		Data:      map[string]interface{}{"message": text},
	}
}
