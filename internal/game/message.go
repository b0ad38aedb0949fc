package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrProtocol marks a frame the server will not tolerate: malformed JSON,
// an unknown type, or a client trying to author server-owned state. The
// connection that produced it is closed without recovery.
var ErrProtocol = errors.New("protocol violation")

// MessageType tags every frame on the wire, in both directions.
type MessageType string

const (
	TypeWait       MessageType = "WAIT"
	TypeReady      MessageType = "READY"
	TypeMovePaddle MessageType = "MOVE_PADDLE"
	TypeMoveBall   MessageType = "MOVE_BALL"
	TypeEndRound   MessageType = "END_ROUND"
	TypeEndGame    MessageType = "END_GAME"
)

// Envelope is the wire shape for every message: {"type": ..., "data": ...}.
type Envelope struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// Movement is a paddle intent flag, not a position: the client reports
// when a key goes down and when it comes back up.
type Movement string

const (
	MoveLeftStart  Movement = "LEFT_START"
	MoveLeftEnd    Movement = "LEFT_END"
	MoveRightStart Movement = "RIGHT_START"
	MoveRightEnd   Movement = "RIGHT_END"
)

func (m Movement) valid() bool {
	switch m {
	case MoveLeftStart, MoveLeftEnd, MoveRightStart, MoveRightEnd:
		return true
	}
	return false
}

// PaddleData is the only client-authored payload. Position is the
// client's own paddle x, relayed to the opponent for drift correction;
// the server checks it is well-formed, not that it is plausible.
type PaddleData struct {
	Movement Movement `json:"movement"`
	Position float64  `json:"position"`
}

// ReadyData tells each participant who they are playing and how long
// until the first serve. Populated per recipient.
type ReadyData struct {
	Opponent string `json:"opponent"`
	Username string `json:"username"`
	Delay    int    `json:"delay"`
}

// BallData is a server-authored ball snapshot: velocity and position on
// the (x, z) plane.
type BallData struct {
	Velocity [2]float64 `json:"velocity"`
	Position [2]float64 `json:"position"`
}

// RoundResultData closes out one round. Win and score ordering are
// relative to the recipient: score[0] is theirs, score[1] the opponent's.
type RoundResultData struct {
	Win   bool   `json:"win"`
	Score [2]int `json:"score"`
}

// EndReason distinguishes a played-out match from a walkover.
type EndReason string

const (
	ReasonScore   EndReason = "SCORE"
	ReasonAbandon EndReason = "ABANDON"
)

// GameResultData closes out the match. Same per-recipient ordering as
// RoundResultData.
type GameResultData struct {
	Win    bool      `json:"win"`
	Score  [2]int    `json:"score"`
	Reason EndReason `json:"reason"`
}

// clientEnvelope defers payload decoding until the type is known.
type clientEnvelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeClientFrame parses an inbound frame. MOVE_PADDLE is the only
// message a client may send; everything else on this protocol is
// server-authored, and a client sending a same-shaped frame is a
// protocol violation, never a relay.
func DecodeClientFrame(raw []byte) (PaddleData, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PaddleData{}, fmt.Errorf("%w: malformed frame: %v", ErrProtocol, err)
	}

	switch env.Type {
	case TypeMovePaddle:
		var data PaddleData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return PaddleData{}, fmt.Errorf("%w: malformed MOVE_PADDLE payload: %v", ErrProtocol, err)
		}
		if !data.Movement.valid() {
			return PaddleData{}, fmt.Errorf("%w: unknown movement %q", ErrProtocol, data.Movement)
		}
		if math.IsNaN(data.Position) || math.IsInf(data.Position, 0) {
			return PaddleData{}, fmt.Errorf("%w: non-finite paddle position", ErrProtocol)
		}
		return data, nil

	case TypeWait, TypeReady, TypeMoveBall, TypeEndRound, TypeEndGame:
		return PaddleData{}, fmt.Errorf("%w: client may not send %s", ErrProtocol, env.Type)

	default:
		return PaddleData{}, fmt.Errorf("%w: unknown message type %q", ErrProtocol, env.Type)
	}
}
