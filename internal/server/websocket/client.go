package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentstation/fieldmap/pkg/constants"
)

// Connection timing. Pings go out before the peer's read deadline lapses.
const (
	writeTimeout = 10 * time.Second
	readTimeout  = time.Minute
	pingInterval = readTimeout * 9 / 10
	readLimit    = 512
)

// Client is one WebSocket connection. Frames flow one way, hub to peer.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient binds conn to hub. Call Register, then start both pumps.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{id: id, hub: hub, conn: conn, send: make(chan Message, constants.ChannelBufferSize)}
}

func (c *Client) extendRead(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
}

// ReadPump discards inbound frames and answers pongs. It unregisters the
// client once the peer goes away.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)
	defer c.conn.Close()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetPongHandler(c.extendRead)
	_ = c.extendRead("")

	for {
		_, _, err := c.conn.NextReader()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket read failed")
		}
		return
	}
}

// WritePump sends queued messages as JSON text frames, pinging between
// them. A closed send channel ends the session with a close frame.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err = c.conn.WriteJSON(msg)
		case <-ping.C:
			err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
		}
		if err != nil {
			c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket write failed")
			return
		}
	}
}
