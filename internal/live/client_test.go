package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientReceivesEvents(t *testing.T) {
	gotAuth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(Event{Type: EventTaskUpdated, ProjectID: "p1", TaskID: "t1"}))
		require.NoError(t, conn.WriteJSON(Event{Type: EventSnapshotStale}))
		// Hold the connection open until the client hangs up.
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(Config{URL: wsURL(server), Token: "tok"}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go client.Run(ctx)
	defer client.Close()

	assert.Equal(t, "Bearer tok", <-gotAuth)

	ev := <-client.Events()
	assert.Equal(t, EventTaskUpdated, ev.Type)
	assert.Equal(t, "t1", ev.TaskID)

	ev = <-client.Events()
	assert.Equal(t, EventSnapshotStale, ev.Type)
}

func TestClientSkipsMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{}`))
		conn.WriteJSON(Event{Type: EventProjectUpdated, ProjectID: "p2"})
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(Config{URL: wsURL(server)}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go client.Run(ctx)
	defer client.Close()

	ev := <-client.Events()
	assert.Equal(t, EventProjectUpdated, ev.Type)
	assert.Equal(t, "p2", ev.ProjectID)
}

func TestClientCloseEndsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(Config{URL: wsURL(server)}, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		client.Run(context.Background())
		close(done)
	}()

	// Give Run a moment to connect, then close.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, client.Close())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after Close")
	}
}
