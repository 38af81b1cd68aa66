package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Chordbook/model"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("track"))
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyScoreUpdatedReachesSubscribers(t *testing.T) {
	hub, base := startHub(t)
	conn := dial(t, base+"?track=t1")
	other := dial(t, base+"?track=t2")

	require.Eventually(t, func() bool {
		return hub.ClientCount("t1") == 1 && hub.ClientCount("t2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	blocks := []model.SectionBlock{{Name: "Intro", Chords: []string{"C"}, Lyrics: []string{"Hello"}}}
	hub.NotifyScoreUpdated("t1", blocks)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgTypeScoreUpdated, msg.Type)
	assert.Equal(t, "t1", msg.TrackID)
	assert.NotZero(t, msg.Timestamp)

	var payload ScoreUpdatedData
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, blocks, payload.Sections)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "other tracks receive nothing")
}

func TestPingGetsPong(t *testing.T) {
	_, base := startHub(t)
	conn := dial(t, base+"?track=t1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","timestamp":1}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"pong"`)
}

func TestClientRemovedOnClose(t *testing.T) {
	hub, base := startHub(t)
	conn := dial(t, base+"?track=t1")

	require.Eventually(t, func() bool { return hub.ClientCount("t1") == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("t1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvictedClientDropsPong(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "slow", Hub: hub, Send: make(chan []byte, 1), TrackID: "t1"}
	hub.registerClient(client)

	// 缓冲区已满，下一次广播会把它踢掉
	require.True(t, client.enqueue([]byte("backlog")))
	hub.broadcastToTrack(&broadcastMessage{trackID: "t1", message: []byte("update")})
	assert.Equal(t, 0, hub.ClientCount("t1"))

	assert.NotPanics(t, func() {
		assert.False(t, client.enqueue([]byte(`{"type":"pong"}`)))
	})

	hub.cleanup()
}

func TestSlowSubscriberPingAfterEviction(t *testing.T) {
	hub, base := startHub(t)
	conn := dial(t, base+"?track=t1")
	require.Eventually(t, func() bool { return hub.ClientCount("t1") == 1 }, 2*time.Second, 10*time.Millisecond)

	big := []model.SectionBlock{{Name: strings.Repeat("x", 1<<20)}}
	require.Eventually(t, func() bool {
		hub.NotifyScoreUpdated("t1", big)
		return hub.ClientCount("t1") == 0
	}, 10*time.Second, time.Millisecond)

	// 服务端可能已经断开，写失败也无妨
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))

	// Hub 仍然可用
	fresh := dial(t, base+"?track=t2")
	require.Eventually(t, func() bool { return hub.ClientCount("t2") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, fresh.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	fresh.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := fresh.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"pong"`)
}
