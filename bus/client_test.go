package bus_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/robovis/bus"
)

// bridgeStub is a minimal in-process bridge: it records control frames sent
// by the client and relays canned frames back to the session.
type bridgeStub struct {
	upgrader websocket.Upgrader
	ops      chan string
	outbound chan string
}

func (b *bridgeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	go func() {
		for frame := range b.outbound {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	}()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b.ops <- string(payload)
	}
}

func startBridge(t *testing.T) (*bridgeStub, string) {
	t.Helper()
	stub := &bridgeStub{
		ops:      make(chan string, 16),
		outbound: make(chan string, 16),
	}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)
	return stub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClientSubscribeAndReceive(t *testing.T) {
	stub, url := startBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := bus.Dial(ctx, url, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Subscribe("/visualization_marker"))

	select {
	case op := <-stub.ops:
		assert.JSONEq(t, `{"op":"subscribe","topic":"/visualization_marker"}`, op)
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscribe frame")
	}

	stub.outbound <- `{"op":"publish","topic":"/visualization_marker","msg":{"action":0,"ns":"a","id":1}}`

	select {
	case msg := <-client.Messages():
		assert.Equal(t, "/visualization_marker", msg.Topic)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &decoded))
		assert.Equal(t, "a", decoded["ns"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}

func TestClientUnsubscribeFrame(t *testing.T) {
	stub, url := startBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := bus.Dial(ctx, url, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Unsubscribe("/tf"))

	select {
	case op := <-stub.ops:
		assert.JSONEq(t, `{"op":"unsubscribe","topic":"/tf"}`, op)
	case <-ctx.Done():
		t.Fatal("timed out waiting for unsubscribe frame")
	}
}

func TestClientIgnoresUnknownOpsAndMalformedFrames(t *testing.T) {
	stub, url := startBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := bus.Dial(ctx, url, quietLogger())
	require.NoError(t, err)
	defer client.Close()

	stub.outbound <- `not json at all`
	stub.outbound <- `{"op":"status","msg":{}}`
	stub.outbound <- `{"op":"publish","topic":"/tf","msg":{"transforms":[]}}`

	select {
	case msg := <-client.Messages():
		assert.Equal(t, "/tf", msg.Topic, "only the publish frame is delivered")
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestClientCloseUnblocksStalledDelivery(t *testing.T) {
	stub, url := startBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := bus.Dial(ctx, url, quietLogger())
	require.NoError(t, err)

	// Feed far more publishes than the delivery buffer holds while the
	// consumer is not draining, so the read pump ends up blocked mid-send.
	go func() {
		for i := 0; i < 400; i++ {
			select {
			case stub.outbound <- `{"op":"publish","topic":"/tf","msg":{}}`:
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-client.Messages():
	case <-ctx.Done():
		t.Fatal("timed out waiting for first message")
	}
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, client.Close())

	for {
		select {
		case _, open := <-client.Messages():
			if !open {
				return
			}
		case <-ctx.Done():
			t.Fatal("delivery channel did not close after Close")
		}
	}
}

func TestClientCloseEndsDelivery(t *testing.T) {
	_, url := startBridge(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := bus.Dial(ctx, url, quietLogger())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close()) // idempotent

	select {
	case _, open := <-client.Messages():
		assert.False(t, open, "delivery channel must close with the session")
	case <-ctx.Done():
		t.Fatal("timed out waiting for channel close")
	}
}
