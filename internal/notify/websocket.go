package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// sendBuffer bounds how far a slow client may lag before events are
	// dropped for it. Dropped events are recovered by the next re-fetch.
	sendBuffer = 8
)

// wsFrame is the wire shape pushed to dashboards: the event name and its
// timestamp payload.
type wsFrame struct {
	Event string `json:"event"`
	Data  Event  `json:"data"`
}

// Client adapts one websocket connection into an Observer. The connection
// lives until the peer disconnects or a write fails; either way the client
// unregisters itself and stops receiving.
type Client struct {
	id       string
	conn     *websocket.Conn
	notifier *Notifier
	send     chan Event
	done     chan struct{}
	closing  sync.Once
}

// NewClient wraps an upgraded connection, registers it with the hub, and
// starts the read/write pumps.
func NewClient(conn *websocket.Conn, notifier *Notifier) *Client {
	c := &Client{
		id:       uuid.NewString(),
		conn:     conn,
		notifier: notifier,
		send:     make(chan Event, sendBuffer),
		done:     make(chan struct{}),
	}
	notifier.Register(c)
	log.Printf("notify: client %s connected", c.id)

	go c.writePump()
	go c.readPump()
	return c
}

// ID returns the connection's ephemeral identifier.
func (c *Client) ID() string {
	return c.id
}

// Send queues an event for the peer, dropping it if the client's buffer is
// full or the client is closing. Never blocks the broadcaster, and is safe
// to race with close: the send channel stays open for the client's
// lifetime, only the done channel signals shutdown.
func (c *Client) Send(ev Event) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
	}
}

func (c *Client) close() {
	c.closing.Do(func() {
		c.notifier.Unregister(c)
		close(c.done)
		log.Printf("notify: client %s disconnected", c.id)
	})
}

// readPump discards inbound messages; the protocol is push-only. Its real
// job is detecting disconnects and answering pings.
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case ev := <-c.send:
			payload, err := json.Marshal(wsFrame{Event: "update", Data: ev})
			if err != nil {
				log.Printf("notify: marshal event failed: %v", err)
				continue
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
