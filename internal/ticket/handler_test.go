package ticket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pong-backend/internal/auth"
	"github.com/courtside/pong-backend/internal/store"
)

const (
	testSecret = "test-secret"
	testCookie = "session_token"
)

func newTestHandler(t *testing.T) (*HTTPHandler, Store) {
	t.Helper()
	s := NewMemoryStore()
	h := NewHTTPHandler(
		auth.NewVerifier(testSecret),
		NewIssuer(s, time.Minute),
		store.NopRecorder{},
		testCookie,
	)
	return h, s
}

func sessionToken(t *testing.T, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doNewGame(t *testing.T, h *HTTPHandler, cookie *http.Cookie) newGameResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/game/pong/new", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.HandleNewGame(rec, req)

	var resp newGameResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleNewGame_Success(t *testing.T) {
	h, s := newTestHandler(t)

	resp := doNewGame(t, h, &http.Cookie{Name: testCookie, Value: sessionToken(t, "alice")})

	assert.True(t, resp.Result)
	assert.Equal(t, "alice", resp.Username)

	roomID, err := uuid.Parse(resp.RoomUUID)
	require.NoError(t, err)

	// The ticket must actually be stored under the returned room UUID,
	// bound to the authenticated player.
	assert.NoError(t, s.Consume(context.Background(), roomID.String(), "alice"))
}

func TestHandleNewGame_MissingCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := doNewGame(t, h, nil)

	assert.False(t, resp.Result)
	assert.Equal(t, "authentication error", resp.Error)
	assert.Empty(t, resp.RoomUUID)
}

func TestHandleNewGame_BadToken(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := doNewGame(t, h, &http.Cookie{Name: testCookie, Value: "garbage"})

	assert.False(t, resp.Result)
	assert.Equal(t, "authentication error", resp.Error)
}
