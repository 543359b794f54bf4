package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesRoomSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + RoomAdmin
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize(RoomAdmin) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(RoomContest, EventVotesChanged, nil)
	hub.Publish(RoomAdmin, EventParticipantsChanged, map[string]string{"participant_id": "p1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string            `json:"type"`
		Room    string            `json:"room"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventParticipantsChanged, ev.Type)
	assert.Equal(t, RoomAdmin, ev.Room)
	assert.Equal(t, "p1", ev.Payload["participant_id"])
}

func TestHub_NilPublishIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(RoomAdmin, EventWeeklyTransition, nil) })
}

func TestIsKnownRoom(t *testing.T) {
	assert.True(t, IsKnownRoom(RoomAdmin))
	assert.True(t, IsKnownRoom(RoomContest))
	assert.False(t, IsKnownRoom("lobby"))
}
