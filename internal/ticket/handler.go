package ticket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/courtside/pong-backend/internal/auth"
	"github.com/courtside/pong-backend/internal/store"
)

// HTTPHandler serves the matchmaking endpoint that turns an authenticated
// request into a match ticket.
type HTTPHandler struct {
	verifier   *auth.Verifier
	issuer     *Issuer
	recorder   store.Recorder
	cookieName string
}

func NewHTTPHandler(verifier *auth.Verifier, issuer *Issuer, recorder store.Recorder, cookieName string) *HTTPHandler {
	return &HTTPHandler{
		verifier:   verifier,
		issuer:     issuer,
		recorder:   recorder,
		cookieName: cookieName,
	}
}

// newGameResponse is the wire shape for both outcomes. Failures keep the
// 200 status; clients branch on `result`.
type newGameResponse struct {
	Result   bool   `json:"result"`
	Username string `json:"username,omitempty"`
	RoomUUID string `json:"room_uuid,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// HandleNewGame is the HTTP handler for POST /game/pong/new. It validates
// the session cookie, allocates a match identity, and returns the room
// UUID the client should open its game connection against. No room is
// created here; rooms come into existence on first join.
func (h *HTTPHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		h.writeJSON(w, http.StatusOK, newGameResponse{Result: false, Error: "authentication error"})
		return
	}

	claims, err := h.verifier.Verify(cookie.Value)
	if err != nil {
		h.writeJSON(w, http.StatusOK, newGameResponse{Result: false, Error: "authentication error"})
		return
	}

	t, err := h.issuer.Issue(r.Context(), claims.Username)
	if err != nil {
		h.writeJSON(w, http.StatusOK, newGameResponse{Result: false, Error: "internal error"})
		return
	}

	// Persistence is best-effort; the match proceeds regardless.
	if err := h.recorder.MatchCreated(r.Context(), t.MatchID.String(), t.Username); err != nil {
		slog.Warn("Failed to persist game room", "matchID", t.MatchID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, newGameResponse{
		Result:   true,
		Username: t.Username,
		RoomUUID: t.MatchID.String(),
	})
}
