package game

import (
	"math/rand"
)

// Settings are the field constants shared by both paddles and the ball.
type Settings struct {
	FieldWidth  float64
	FieldDepth  float64
	PaddleWidth float64
	BallSpeed   float64
}

func DefaultSettings() Settings {
	return Settings{
		FieldWidth:  20,
		FieldDepth:  30,
		PaddleWidth: 5,
		BallSpeed:   8,
	}
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

// Vec is a point or velocity on the (x, z) plane. x runs across the
// field, z runs between the two goal lines.
type Vec struct {
	X float64
	Z float64
}

// paddle is one player's paddle. Movement flags are set by intents and
// applied per frame, so paddle speed is server-controlled.
type paddle struct {
	pos       Vec
	moveLeft  bool
	moveRight bool
	offset    float64 // max |x|, keeps the paddle inside the field
	halfWidth float64
}

func newPaddle(z float64, set Settings) paddle {
	return paddle{
		pos:       Vec{X: 0, Z: z},
		offset:    (set.FieldWidth - set.PaddleWidth) / 2,
		halfWidth: set.PaddleWidth / 2,
	}
}

func (p *paddle) apply(m Movement) {
	switch m {
	case MoveLeftStart:
		p.moveLeft = true
		p.moveRight = false
	case MoveLeftEnd:
		p.moveLeft = false
	case MoveRightStart:
		p.moveLeft = false
		p.moveRight = true
	case MoveRightEnd:
		p.moveRight = false
	}
}

func (p *paddle) frame(delta float64) {
	if p.moveLeft {
		p.pos.X -= 1.5 * delta
	} else if p.moveRight {
		p.pos.X += 1.5 * delta
	}
	p.pos.X = clamp(p.pos.X, -p.offset, p.offset)
}

// ball carries the authoritative ball state for one round.
type ball struct {
	pos   Vec
	vel   Vec
	speed float64
	halfW float64
	halfD float64
}

// frame advances the ball and resolves wall and paddle contact. It
// reports whether anything was hit this frame; a goal-line crossing
// without contact is what ends a round.
func (b *ball) frame(delta float64, p1, p2 *paddle) bool {
	collision := false

	b.pos.X += b.vel.X * delta
	b.pos.Z += b.vel.Z * delta

	// Side walls reflect the ball back into the field.
	if b.pos.X >= b.halfW {
		collision = true
		b.pos.X = b.halfW - 1
		b.vel.X = -b.vel.X
	} else if b.pos.X <= -b.halfW {
		collision = true
		b.pos.X = -b.halfW + 1
		b.vel.X = -b.vel.X
	}

	// Goal lines: either the paddle is there, or the round is over.
	if b.pos.Z >= b.halfD {
		if b.touches(p1) {
			collision = true
		}
		b.pos.Z = b.halfD
	} else if b.pos.Z <= -b.halfD {
		if b.touches(p2) {
			collision = true
		}
		b.pos.Z = -b.halfD
	}

	return collision
}

// touches checks paddle contact and, on a hit, reflects the ball with an
// x velocity proportional to how far off-center it struck.
func (b *ball) touches(p *paddle) bool {
	inReach := clamp(b.pos.X, p.pos.X-p.halfWidth, p.pos.X+p.halfWidth)
	if inReach != b.pos.X {
		return false
	}
	b.vel.Z = -b.vel.Z
	b.vel.X = (b.pos.X - p.pos.X) / (p.halfWidth + 0.1) * b.speed
	return true
}

// Simulation is the trusted source for ball motion and round outcomes.
// Player 1 defends the far goal line (positive z), player 2 the near one.
// It is not safe for concurrent use; the room loop owns it.
type Simulation struct {
	p1     paddle
	p2     paddle
	ball   ball
	set    Settings
	winner int // 0 while the round is live, else 1 or 2
}

func NewSimulation(set Settings) *Simulation {
	vz := set.BallSpeed
	if rand.Intn(2) == 0 {
		vz = -vz
	}
	return &Simulation{
		p1: newPaddle(set.FieldDepth/2, set),
		p2: newPaddle(-set.FieldDepth/2, set),
		ball: ball{
			vel:   Vec{X: 0, Z: vz},
			speed: set.BallSpeed,
			halfW: set.FieldWidth / 2,
			halfD: set.FieldDepth / 2,
		},
		set: set,
	}
}

// Move applies a paddle intent for the given player (1 or 2).
func (s *Simulation) Move(player int, m Movement) {
	switch player {
	case 1:
		s.p1.apply(m)
	case 2:
		s.p2.apply(m)
	}
}

// Frame advances the simulation by delta seconds. It returns true when
// the ball hit a wall or paddle this frame, which is the moment clients
// need a fresh snapshot. After a goal-line miss Winner reports the
// scoring side and further frames are no-ops.
func (s *Simulation) Frame(delta float64) bool {
	if s.winner != 0 {
		return false
	}

	s.p1.frame(delta)
	s.p2.frame(delta)
	collision := s.ball.frame(delta, &s.p1, &s.p2)

	// The rally speeds up the longer it lasts.
	if s.ball.vel.Z > 0 {
		s.ball.vel.Z += 0.001 * delta
	} else {
		s.ball.vel.Z -= 0.001 * delta
	}

	if !collision {
		if s.ball.pos.Z >= s.set.FieldDepth/2 {
			s.winner = 2 // past player 1's line
		} else if s.ball.pos.Z <= -s.set.FieldDepth/2 {
			s.winner = 1
		}
	}

	return collision
}

// Winner returns 0 while the round is live, otherwise the scoring player.
func (s *Simulation) Winner() int {
	return s.winner
}

// BallState snapshots the current ball for a MOVE_BALL broadcast.
func (s *Simulation) BallState() BallData {
	return BallData{
		Velocity: [2]float64{s.ball.vel.X, s.ball.vel.Z},
		Position: [2]float64{s.ball.pos.X, s.ball.pos.Z},
	}
}
