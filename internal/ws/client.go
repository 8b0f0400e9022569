package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced on the HTTP surface; the socket carries
		// only ticks for the authenticated employee.
		return true
	},
}

type Client struct {
	employeeID int
	credential string
	conn       *websocket.Conn
	send       chan []byte
}

// Serve upgrades the request and attaches the connection to the hub. The
// caller supplies the already-authenticated employee identity.
func (h *Hub) Serve(employeeID int, credential string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			employeeID: employeeID,
			credential: credential,
			conn:       conn,
			send:       make(chan []byte, sendBuffer),
		}
		select {
		case h.register <- client:
		case <-h.stop:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		// The hub may already be stopped; never block the pump on its way out.
		select {
		case h.unregister <- c:
		case <-h.stop:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
