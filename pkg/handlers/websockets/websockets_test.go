package websockets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/wage-advance-ledger/pkg/websockets"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connections struct {
	mu  sync.Mutex
	ids map[string]bool
	err error
}

func newConnections() *connections { return &connections{ids: map[string]bool{}} }

func (c *connections) AddConnection(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.ids[id] = true
	return nil
}

func (c *connections) RemoveConnection(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, id)
	return c.err
}

func (c *connections) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func gatewayRequest(id, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body:           body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{ConnectionID: id},
	}
}

func TestGatewayRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("Connect And Disconnect", func(t *testing.T) {
		conns := newConnections()
		h := NewHandler(conns, nil)

		resp, err := h.HandleConnect(ctx, gatewayRequest("abc=", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, conns.count())

		resp, err = h.HandleDisconnect(ctx, gatewayRequest("abc=", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 0, conns.count())
	})

	t.Run("Connect Store Fails", func(t *testing.T) {
		conns := newConnections()
		conns.err = assert.AnError
		h := NewHandler(conns, nil)

		resp, err := h.HandleConnect(ctx, gatewayRequest("abc=", ""))
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("Ping", func(t *testing.T) {
		h := NewHandler(newConnections(), nil)
		resp, err := h.HandleDefault(ctx, gatewayRequest("abc=", `{"action":"ping"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Body, "pong")

		resp, err = h.HandleDefault(ctx, gatewayRequest("abc=", `hello`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLocalSocketReceivesNotifications(t *testing.T) {
	conns := newConnections()
	hub := websockets.NewHub()
	srv := httptest.NewServer(NewHandler(conns, hub))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, conns.count())

	require.NoError(t, hub.Publish(context.Background(), websockets.Message{
		Type:    websockets.MessageTypeRequestUpdate,
		Payload: websockets.RequestUpdatePayload{Event: "advance_completed", RequestID: "req-1"},
	}))

	var got map[string]any
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "requestUpdate", got["type"])

	client.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 && conns.count() == 0 }, time.Second, 5*time.Millisecond)
}
