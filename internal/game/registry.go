package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/courtside/pong-backend/internal/store"
	"github.com/courtside/pong-backend/internal/ticket"
)

var (
	// ErrInvalidMatch means the match identity was never issued, has
	// expired, or its room has already ended.
	ErrInvalidMatch = errors.New("unknown or expired match")
	// ErrRoomFull means both participant seats are taken.
	ErrRoomFull = errors.New("room is full")
)

// Registry is the process-wide matchId→Room mapping. Its lock covers
// only map lookup, insert, and remove; per-room state is serialized
// independently by each room's event loop, so unrelated matches never
// contend.
type Registry struct {
	cfg      Config
	tickets  ticket.Store
	recorder store.Recorder
	notifier Notifier

	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func NewRegistry(cfg Config, tickets ticket.Store, recorder store.Recorder, notifier Notifier) *Registry {
	return &Registry{
		cfg:      cfg,
		tickets:  tickets,
		recorder: recorder,
		notifier: notifier,
		rooms:    make(map[uuid.UUID]*Room),
	}
}

// Join binds a connection to the room for matchID, creating the room on
// the first join. A room is only created for a match identity that was
// actually issued: the first join consumes the ticket, which only the
// player it was issued to can do, and a live room admits its second
// participant without one.
func (g *Registry) Join(ctx context.Context, matchID uuid.UUID, name string, conn sender) (*Room, int, error) {
	g.mu.Lock()
	room, ok := g.rooms[matchID]
	if !ok {
		if err := g.tickets.Consume(ctx, matchID.String(), name); err != nil {
			g.mu.Unlock()
			if errors.Is(err, ticket.ErrNotFound) {
				return nil, 0, ErrInvalidMatch
			}
			return nil, 0, err
		}
		room = newRoom(matchID, g.cfg, g.recorder, g.notifier, g.remove)
		g.rooms[matchID] = room
		go room.run()
		slog.Info("Game room created", "matchID", matchID)
	}
	g.mu.Unlock()

	player, err := room.Join(name, conn)
	if err != nil {
		return nil, 0, err
	}
	return room, player, nil
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) remove(matchID uuid.UUID) {
	g.mu.Lock()
	delete(g.rooms, matchID)
	g.mu.Unlock()
	slog.Info("Game room removed", "matchID", matchID)
}
