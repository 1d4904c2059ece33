package ws

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		advisorID, err := strconv.ParseInt(r.URL.Query().Get("advisor"), 10, 64)
		if err != nil {
			http.Error(w, "bad advisor", http.StatusBadRequest)
			return
		}
		hub.ServeWS(w, r, advisorID)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialAdvisor(t *testing.T, server *httptest.Server, advisorID int64) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "?advisor=" + strconv.FormatInt(advisorID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesEveryAdvisorConnection(t *testing.T) {
	hub := NewHub()
	server := newHubServer(t, hub)

	first := dialAdvisor(t, server, 1)
	second := dialAdvisor(t, server, 1)

	require.Eventually(t, func() bool { return hub.ConnectionCount(1) == 2 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastToAdvisor(1, models.AdvisorEvent{
		Type: models.EventNewFeedback,
		Data: map[string]any{"feedback_id": 101, "urgency": 5},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var event models.AdvisorEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, models.EventNewFeedback, event.Type)
		assert.Equal(t, int64(1), event.AdvisorID)
		assert.EqualValues(t, 5, event.Data["urgency"])
	}
}

func TestHub_BroadcastDoesNotLeakAcrossAdvisors(t *testing.T) {
	hub := NewHub()
	server := newHubServer(t, hub)

	other := dialAdvisor(t, server, 2)
	require.Eventually(t, func() bool { return hub.ConnectionCount(2) == 1 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastToAdvisor(1, models.AdvisorEvent{Type: models.EventClientCreated})

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout(), "expected a read timeout, got %v", err)
}

func TestHub_DisconnectDropsConnection(t *testing.T) {
	hub := NewHub()
	server := newHubServer(t, hub)

	conn := dialAdvisor(t, server, 3)
	require.Eventually(t, func() bool { return hub.ConnectionCount(3) == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount(3) == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting into the empty room must not panic or block.
	hub.BroadcastToAdvisor(3, models.AdvisorEvent{Type: models.EventPortfolioSynced})
}

func TestHub_BroadcastWithNoConnectionsIsHarmless(t *testing.T) {
	hub := NewHub()

	hub.BroadcastToAdvisor(99, models.AdvisorEvent{Type: models.EventCommunicationSent})

	assert.Zero(t, hub.ConnectionCount(99))
}
