package game

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pong-backend/internal/ticket"
)

// wireEnvelope mirrors what a real client sees on the wire.
type wireEnvelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newGameServer(t *testing.T, cfg Config) (*httptest.Server, ticket.Store) {
	t.Helper()
	reg, tickets := newTestRegistry(cfg)

	r := chi.NewRouter()
	r.Get("/game/ws/pong/{roomID}/{name}", NewWSHandler(reg).ServeHTTP)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tickets
}

func dialGame(t *testing.T, srv *httptest.Server, matchID uuid.UUID, name string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws/pong/" + matchID.String() + "/" + name
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env wireEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocket_PairingFlow(t *testing.T) {
	cfg := fastConfig()
	cfg.StartDelay = time.Hour // hold before the first serve
	srv, tickets := newGameServer(t, cfg)

	matchID := uuid.New()
	require.NoError(t, tickets.Put(context.Background(), matchID.String(), "alice", time.Minute))

	alice := dialGame(t, srv, matchID, "alice")
	assert.Equal(t, TypeWait, readFrame(t, alice).Type)

	bob := dialGame(t, srv, matchID, "bob")

	readyAlice := readFrame(t, alice)
	require.Equal(t, TypeReady, readyAlice.Type)
	var dataAlice ReadyData
	require.NoError(t, json.Unmarshal(readyAlice.Data, &dataAlice))
	assert.Equal(t, "alice", dataAlice.Username)
	assert.Equal(t, "bob", dataAlice.Opponent)

	readyBob := readFrame(t, bob)
	require.Equal(t, TypeReady, readyBob.Type)
	var dataBob ReadyData
	require.NoError(t, json.Unmarshal(readyBob.Data, &dataBob))
	assert.Equal(t, "bob", dataBob.Username)
	assert.Equal(t, "alice", dataBob.Opponent)
	assert.Equal(t, dataAlice.Delay, dataBob.Delay)
}

func TestWebSocket_UnknownRoomRefused(t *testing.T) {
	srv, _ := newGameServer(t, fastConfig())

	conn := dialGame(t, srv, uuid.New(), "alice")

	// The server refuses the join and closes; the first read fails.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocket_ClientBallFrameEndsConnection(t *testing.T) {
	cfg := fastConfig()
	cfg.StartDelay = time.Hour // hold in READY: the only ball frames would be client-authored
	srv, tickets := newGameServer(t, cfg)

	matchID := uuid.New()
	require.NoError(t, tickets.Put(context.Background(), matchID.String(), "alice", time.Minute))

	alice := dialGame(t, srv, matchID, "alice")
	require.Equal(t, TypeWait, readFrame(t, alice).Type)
	bob := dialGame(t, srv, matchID, "bob")
	require.Equal(t, TypeReady, readFrame(t, alice).Type)
	require.Equal(t, TypeReady, readFrame(t, bob).Type)

	// Alice tries to author ball state. The frame must never reach Bob;
	// instead her connection dies and Bob wins by abandonment.
	err := alice.WriteJSON(map[string]interface{}{
		"type": "MOVE_BALL",
		"data": map[string]interface{}{"velocity": []float64{1, 1}, "position": []float64{0, 0}},
	})
	require.NoError(t, err)

	for {
		env := readFrame(t, bob)
		require.NotEqual(t, TypeMoveBall, env.Type, "client-authored ball frame was relayed")
		if env.Type == TypeEndGame {
			var result GameResultData
			require.NoError(t, json.Unmarshal(env.Data, &result))
			assert.True(t, result.Win)
			assert.Equal(t, ReasonAbandon, result.Reason)
			return
		}
	}
}
