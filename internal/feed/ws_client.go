package feed

import (
	"encoding/json"
	"log"
	"time"

	"chatboard/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketClient implements the feed.Client interface over gorilla.
type WebSocketClient struct {
	Username string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan models.FeedEvent
}

func (c *WebSocketClient) GetUsername() string { return c.Username }
func (c *WebSocketClient) GetSendChannel() chan<- models.FeedEvent { return c.Send }

// Run starts the pumps for this connection.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump. The read
// pump stops on its own when the connection closes.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("feed: read error from %s: %v", c.Username, err)
			}
			break
		}

		var ev models.FeedEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("feed: bad JSON from client %s: %v", c.Username, err)
			continue
		}

		// Never trust the sender field from the wire.
		ev.Username = c.Username

		c.Hub.IncomingCh <- ev
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("feed: marshal event for %s: %v", c.Username, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			// Flush whatever else is queued into the same frame batch.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next := <-c.Send
				extra, _ := json.Marshal(next)
				w.Write([]byte("\n"))
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
