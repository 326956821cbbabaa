// Package bus is a small pub/sub client for the JSON-over-websocket bridge
// robotics middlewares expose. It subscribes to topics and delivers every
// published message on a single channel, preserving arrival order for the one
// consumer loop that applies them.
package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is one published datum from the bridge.
type Message struct {
	Topic string
	Data  json.RawMessage
}

type frame struct {
	Op    string          `json:"op"`
	Topic string          `json:"topic,omitempty"`
	Msg   json.RawMessage `json:"msg,omitempty"`
}

// Client holds one websocket session to the bridge. Subscribe and Unsubscribe
// may be called from any goroutine; received messages are read from Messages
// by exactly one consumer.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	inbound chan Message
	done    chan struct{}
	logger  *log.Logger

	closeOnce sync.Once
}

// Dial connects to the bridge and starts the read pump.
func Dial(ctx context.Context, url string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		inbound: make(chan Message, 256),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go c.readPump()
	return c, nil
}

// Messages returns the delivery channel. It is closed when the session ends;
// entities built from past messages outlive the channel and need an explicit
// registry Dispose.
func (c *Client) Messages() <-chan Message {
	return c.inbound
}

// Subscribe asks the bridge to start publishing a topic to this session.
func (c *Client) Subscribe(topic string) error {
	return c.writeFrame(frame{Op: "subscribe", Topic: topic})
}

// Unsubscribe stops publications for a topic. Messages already in flight may
// still be delivered.
func (c *Client) Unsubscribe(topic string) error {
	return c.writeFrame(frame{Op: "unsubscribe", Topic: topic})
}

func (c *Client) writeFrame(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears the session down. The read pump exits and Messages is closed,
// even if the consumer stopped draining it.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readPump() {
	defer close(c.inbound)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			c.logger.Printf("bus: discarding malformed frame: %v", err)
			continue
		}
		switch f.Op {
		case "publish":
			// A full delivery channel must not pin this goroutine past Close.
			select {
			case c.inbound <- Message{Topic: f.Topic, Data: f.Msg}:
			case <-c.done:
				return
			}
		default:
			c.logger.Printf("bus: unexpected op %q, ignoring", f.Op)
		}
	}
}
