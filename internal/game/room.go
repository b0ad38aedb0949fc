package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/pong-backend/internal/store"
)

// Phase is the match lifecycle state. Transitions only ever happen on
// the room's own goroutine.
type Phase int

const (
	PhaseWait Phase = iota
	PhaseReady
	PhaseInRound
	PhaseEndRound
	PhaseEndGame
)

func (p Phase) String() string {
	switch p {
	case PhaseWait:
		return "WAIT"
	case PhaseReady:
		return "READY"
	case PhaseInRound:
		return "IN_ROUND"
	case PhaseEndRound:
		return "END_ROUND"
	case PhaseEndGame:
		return "END_GAME"
	}
	return "UNKNOWN"
}

// sender is the delivery side of a connection session. The room holds it
// as a back-reference only; the session owns the transport.
type sender interface {
	Send(env Envelope) error
	Close()
}

// slot is one of the two participant seats. A seat never reverts to
// connected after a disconnect; the match ends instead.
type slot struct {
	name      string
	conn      sender
	connected bool
}

// Room events. Everything that can touch room state arrives through the
// single event channel and is handled by the run loop.
type joinRequest struct {
	name  string
	conn  sender
	reply chan joinResult
}

type joinResult struct {
	player int
	err    error
}

type paddleMsg struct {
	player int
	data   PaddleData
}

type leaveMsg struct {
	player int
}

type timerMsg struct {
	gen int
}

type pointMsg struct {
	winner int
}

type tickMsg struct {
	at time.Time
}

// Room pairs two sessions for one best-of-five match. All mutable state
// below the events channel is owned exclusively by the run loop, which
// serializes joins, paddle intents, simulation frames, timers, and
// disconnects in arrival order.
type Room struct {
	id       uuid.UUID
	cfg      Config
	recorder store.Recorder
	notifier Notifier
	onClose  func(id uuid.UUID)

	events chan interface{}
	done   chan struct{}

	// Owned by the run loop.
	slots      [2]*slot
	phase      Phase
	score      [2]int
	roundIndex int
	sim        *Simulation
	timerGen   int
	lastFrame  time.Time
	nextResync time.Time
	tickerOnce sync.Once
}

func newRoom(id uuid.UUID, cfg Config, recorder store.Recorder, notifier Notifier, onClose func(uuid.UUID)) *Room {
	return &Room{
		id:       id,
		cfg:      cfg,
		recorder: recorder,
		notifier: notifier,
		onClose:  onClose,
		events:   make(chan interface{}, 64),
		done:     make(chan struct{}),
		phase:    PhaseWait,
	}
}

// Join admits a connection into the room and returns its player number
// (1 or 2). The request is serialized with all other room events.
func (r *Room) Join(name string, conn sender) (int, error) {
	reply := make(chan joinResult, 1)
	select {
	case r.events <- joinRequest{name: name, conn: conn, reply: reply}:
	case <-r.done:
		return 0, ErrInvalidMatch
	}
	select {
	case res := <-reply:
		return res.player, res.err
	case <-r.done:
		return 0, ErrInvalidMatch
	}
}

// Paddle queues a validated paddle intent from the given player.
func (r *Room) Paddle(player int, data PaddleData) {
	r.post(paddleMsg{player: player, data: data})
}

// Leave queues a disconnect signal for the given player.
func (r *Room) Leave(player int) {
	r.post(leaveMsg{player: player})
}

// PointScored queues a round outcome for the given winner. The built-in
// simulation reports points through the tick path; this entry point
// exists for an external authority driving the ball instead.
func (r *Room) PointScored(winner int) {
	r.post(pointMsg{winner: winner})
}

func (r *Room) post(ev interface{}) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// run is the room's single-writer loop. It exits when the match reaches
// a terminal state, then tears the room down.
func (r *Room) run() {
	for {
		ev := <-r.events
		if r.handle(ev) {
			break
		}
	}
	close(r.done)
	for _, s := range r.slots {
		if s != nil && s.conn != nil {
			s.conn.Close()
		}
	}
	r.onClose(r.id)
}

func (r *Room) handle(ev interface{}) (stop bool) {
	switch ev := ev.(type) {
	case joinRequest:
		return r.handleJoin(ev)
	case paddleMsg:
		r.handlePaddle(ev)
	case tickMsg:
		return r.handleTick(ev)
	case timerMsg:
		r.handleTimer(ev)
	case pointMsg:
		if r.phase == PhaseInRound && (ev.winner == 1 || ev.winner == 2) {
			return r.endRound(ev.winner)
		}
	case leaveMsg:
		return r.handleLeave(ev)
	}
	return false
}

func (r *Room) handleJoin(ev joinRequest) bool {
	switch {
	case r.slots[0] == nil:
		r.slots[0] = &slot{name: ev.name, conn: ev.conn, connected: true}
		ev.reply <- joinResult{player: 1}
		r.recordStatus(store.StatusWaiting)
		r.sendTo(1, TypeWait, nil)

	case r.slots[1] == nil && r.phase == PhaseWait:
		r.slots[1] = &slot{name: ev.name, conn: ev.conn, connected: true}
		ev.reply <- joinResult{player: 2}
		r.becomeReady()

	default:
		ev.reply <- joinResult{err: ErrRoomFull}
	}
	return false
}

// becomeReady is the one and only WAIT→READY transition: it fires on the
// second successful join and never again.
func (r *Room) becomeReady() {
	r.phase = PhaseReady
	r.recordStatus(store.StatusRunning)
	r.notifier.MatchStarted(context.Background(), r.id.String(), [2]string{r.slots[0].name, r.slots[1].name})

	delay := int(r.cfg.StartDelay.Seconds())
	r.sendTo(1, TypeReady, ReadyData{Opponent: r.slots[1].name, Username: r.slots[0].name, Delay: delay})
	r.sendTo(2, TypeReady, ReadyData{Opponent: r.slots[0].name, Username: r.slots[1].name, Delay: delay})

	slog.Info("Match ready", "matchID", r.id, "player1", r.slots[0].name, "player2", r.slots[1].name)
	r.scheduleTimer(r.cfg.StartDelay)
}

// scheduleTimer arms the phase timer. The generation counter makes stale
// timers harmless: only the most recently armed one is honored.
func (r *Room) scheduleTimer(d time.Duration) {
	r.timerGen++
	gen := r.timerGen
	time.AfterFunc(d, func() {
		r.post(timerMsg{gen: gen})
	})
}

func (r *Room) handleTimer(ev timerMsg) {
	if ev.gen != r.timerGen {
		return
	}
	if r.phase == PhaseReady || r.phase == PhaseEndRound {
		r.startRound()
	}
}

func (r *Room) startRound() {
	r.phase = PhaseInRound
	r.roundIndex++
	r.sim = NewSimulation(r.cfg.Physics)
	r.lastFrame = time.Now()
	r.nextResync = r.lastFrame.Add(r.cfg.ResyncInterval)

	r.broadcast(TypeMoveBall, r.sim.BallState())
	slog.Info("Round started", "matchID", r.id, "round", r.roundIndex)

	r.tickerOnce.Do(func() {
		go r.tickLoop()
	})
}

// tickLoop feeds frame ticks into the event channel. Ticks are dropped
// when the loop is busy; the simulation catches up via the frame delta.
func (r *Room) tickLoop() {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case at := <-ticker.C:
			select {
			case r.events <- tickMsg{at: at}:
			case <-r.done:
				return
			default:
			}
		}
	}
}

func (r *Room) handlePaddle(ev paddleMsg) {
	// Outside a round a paddle intent is stale, not an offense; frames
	// reorder around phase boundaries.
	if r.phase != PhaseInRound {
		return
	}
	r.sendTo(opponent(ev.player), TypeMovePaddle, ev.data)
	r.sim.Move(ev.player, ev.data.Movement)
}

func (r *Room) handleTick(ev tickMsg) bool {
	if r.phase != PhaseInRound {
		return false
	}
	delta := ev.at.Sub(r.lastFrame).Seconds()
	if delta <= 0 {
		return false
	}
	r.lastFrame = ev.at

	collision := r.sim.Frame(delta)
	if winner := r.sim.Winner(); winner != 0 {
		return r.endRound(winner)
	}
	if collision || ev.at.After(r.nextResync) {
		r.broadcast(TypeMoveBall, r.sim.BallState())
		r.nextResync = ev.at.Add(r.cfg.ResyncInterval)
	}
	return false
}

func (r *Room) endRound(winner int) bool {
	r.score[winner-1]++
	r.phase = PhaseEndRound

	r.sendTo(1, TypeEndRound, RoundResultData{Win: winner == 1, Score: r.relScore(1)})
	r.sendTo(2, TypeEndRound, RoundResultData{Win: winner == 2, Score: r.relScore(2)})
	slog.Info("Round ended", "matchID", r.id, "round", r.roundIndex, "winner", r.slots[winner-1].name,
		"score1", r.score[0], "score2", r.score[1])

	if r.score[winner-1] >= r.cfg.RoundsToWin {
		return r.endGame(winner, ReasonScore)
	}
	r.scheduleTimer(r.cfg.RoundDelay)
	return false
}

// endGame emits the terminal message and stops the room loop; teardown
// follows immediately in run.
func (r *Room) endGame(winner int, reason EndReason) bool {
	r.phase = PhaseEndGame

	r.sendTo(1, TypeEndGame, GameResultData{Win: winner == 1, Score: r.relScore(1), Reason: reason})
	r.sendTo(2, TypeEndGame, GameResultData{Win: winner == 2, Score: r.relScore(2), Reason: reason})

	if winner == 1 {
		r.recordStatus(store.StatusP1Win)
	} else {
		r.recordStatus(store.StatusP2Win)
	}
	r.notifier.MatchEnded(context.Background(), r.id.String(), r.slots[winner-1].name, r.score, string(reason))

	slog.Info("Match ended", "matchID", r.id, "winner", r.slots[winner-1].name,
		"score1", r.score[0], "score2", r.score[1], "reason", reason)
	return true
}

func (r *Room) handleLeave(ev leaveMsg) bool {
	s := r.slots[ev.player-1]
	if s == nil || !s.connected {
		return false
	}
	s.connected = false
	s.conn = nil

	if r.phase == PhaseWait {
		// Sole participant gone before an opponent arrived.
		slog.Info("Room abandoned before pairing", "matchID", r.id)
		r.recordStatus(store.StatusAbandoned)
		return true
	}

	other := opponent(ev.player)
	if r.slots[other-1] == nil || !r.slots[other-1].connected {
		// Both sides gone: nobody is left to tell, but the persisted row
		// must still leave its running state.
		slog.Info("Both participants disconnected", "matchID", r.id)
		r.recordStatus(store.StatusAbandoned)
		r.notifier.MatchEnded(context.Background(), r.id.String(), "", r.score, string(ReasonAbandon))
		return true
	}

	slog.Info("Participant disconnected mid-match", "matchID", r.id, "username", s.name, "phase", r.phase)
	return r.endGame(other, ReasonAbandon)
}

// sendTo delivers to one participant. Delivery is best-effort: a failed
// write is the peer's problem and surfaces as their disconnect.
func (r *Room) sendTo(player int, msgType MessageType, data interface{}) {
	s := r.slots[player-1]
	if s == nil || !s.connected {
		return
	}
	if err := s.conn.Send(Envelope{Type: msgType, Data: data}); err != nil {
		slog.Warn("Failed to deliver message", "matchID", r.id, "username", s.name, "type", msgType, "error", err)
	}
}

func (r *Room) broadcast(msgType MessageType, data interface{}) {
	r.sendTo(1, msgType, data)
	r.sendTo(2, msgType, data)
}

// relScore orders the scoreboard relative to the recipient.
func (r *Room) relScore(player int) [2]int {
	return [2]int{r.score[player-1], r.score[opponent(player)-1]}
}

func (r *Room) recordStatus(status store.Status) {
	if err := r.recorder.SetStatus(context.Background(), r.id.String(), status); err != nil {
		slog.Warn("Failed to persist room status", "matchID", r.id, "status", status, "error", err)
	}
}

func opponent(player int) int {
	if player == 1 {
		return 2
	}
	return 1
}
