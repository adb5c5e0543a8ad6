package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))

	return env
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.Count() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsToUnsubscribedClients(t *testing.T) {
	hub := NewHub()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)

	hub.Publish("sensors", map[string]string{"device_id": "pump-1"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "sensors", env.Topic)
	assert.False(t, env.Timestamp.IsZero())
}

func TestHubSubscriptionNarrowsFeed(t *testing.T) {
	hub := NewHub()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(subscribeFrame{Action: "subscribe", Topic: "alerts"}))

	// Subscription processing is asynchronous; give the read pump a moment.
	time.Sleep(100 * time.Millisecond)

	hub.Publish("sensors", "dropped")
	hub.Publish("alerts", "delivered")

	env := readEnvelope(t, conn)
	assert.Equal(t, "alerts", env.Topic)
}

func TestHubUnsubscribeRestoresFullFeed(t *testing.T) {
	hub := NewHub()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(subscribeFrame{Action: "subscribe", Topic: "alerts"}))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(subscribeFrame{Action: "unsubscribe", Topic: "alerts"}))
	time.Sleep(100 * time.Millisecond)

	hub.Publish("sensors", "visible again")

	env := readEnvelope(t, conn)
	assert.Equal(t, "sensors", env.Topic)
}

func TestHubCountAndClose(t *testing.T) {
	hub := NewHub()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Count())

	// The server closes the connection; the client read eventually fails.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestClientTrySendAfterShutdown(t *testing.T) {
	c := &client{send: make(chan []byte, 1), topics: make(map[string]struct{})}

	require.True(t, c.trySend([]byte("a")))

	// Buffer of one is now full.
	assert.False(t, c.trySend([]byte("b")))

	c.shutdown()
	c.shutdown()

	assert.False(t, c.trySend([]byte("c")))
}

// Publish snapshots the client set before sending, so a client may be
// disconnected between the snapshot and the send. The send must never land
// on a closed channel.
func TestHubPublishDuringDisconnect(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup

	for i := 0; i < 200; i++ {
		c := &client{
			send:   make(chan []byte, 1),
			topics: make(map[string]struct{}),
		}
		hub.register(c)

		wg.Add(2)

		go func() {
			defer wg.Done()

			for j := 0; j < 25; j++ {
				hub.Publish("sensors", j)
			}
		}()

		go func(c *client) {
			defer wg.Done()
			hub.unregister(c)
		}(c)
	}

	wg.Wait()

	hub.Close()
	assert.Equal(t, 0, hub.Count())
}

func TestClientWants(t *testing.T) {
	c := &client{topics: make(map[string]struct{})}

	assert.True(t, c.wants("anything"))

	c.subscribe("alerts")
	assert.True(t, c.wants("alerts"))
	assert.False(t, c.wants("sensors"))

	c.unsubscribe("alerts")
	assert.True(t, c.wants("sensors"))
}
