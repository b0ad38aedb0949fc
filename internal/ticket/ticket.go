package ticket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a ticket was never issued, already
// consumed, or has outlived its TTL. The caller cannot tell these apart,
// and must not be able to: all three mean "no valid match identity".
var ErrNotFound = errors.New("ticket not found")

// Ticket binds an authenticated player to a freshly allocated match
// identity. It is consumed exactly once, when the holder's connection
// joins the room.
type Ticket struct {
	MatchID  uuid.UUID
	Username string
}

// Store is the contract for ticket storage. Consume must be atomic: two
// concurrent consumers of the same match ID must not both succeed.
type Store interface {
	Put(ctx context.Context, matchID, username string, ttl time.Duration) error
	Consume(ctx context.Context, matchID, username string) error
}

// redisStore keeps tickets in Redis with a TTL, so unused match
// identities expire without any cleanup loop on our side.
type redisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb, prefix: "pong:ticket:"}
}

func (s *redisStore) Put(ctx context.Context, matchID, username string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.prefix+matchID, username, ttl).Err()
}

// Consume claims the ticket for the player it was issued to. A ticket
// held by somebody else is reported exactly like a missing one, and is
// left in place for the rightful holder. The GETDEL is the atomic claim:
// of two concurrent holders, exactly one wins.
func (s *redisStore) Consume(ctx context.Context, matchID, username string) error {
	holder, err := s.rdb.Get(ctx, s.prefix+matchID).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if holder != username {
		return ErrNotFound
	}

	holder, err = s.rdb.GetDel(ctx, s.prefix+matchID).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if holder != username {
		return ErrNotFound
	}
	return nil
}

// memoryStore is a process-local Store for tests and for running without
// Redis. Expiry is checked lazily on Consume.
type memoryStore struct {
	mu      sync.Mutex
	tickets map[string]memoryEntry
}

type memoryEntry struct {
	username  string
	expiresAt time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{tickets: make(map[string]memoryEntry)}
}

func (s *memoryStore) Put(ctx context.Context, matchID, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[matchID] = memoryEntry{username: username, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryStore) Consume(ctx context.Context, matchID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tickets[matchID]
	if !ok {
		return ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.tickets, matchID)
		return ErrNotFound
	}
	if entry.username != username {
		return ErrNotFound
	}
	delete(s.tickets, matchID)
	return nil
}

// Issuer allocates match identities for authenticated players.
type Issuer struct {
	store Store
	ttl   time.Duration
}

func NewIssuer(store Store, ttl time.Duration) *Issuer {
	return &Issuer{store: store, ttl: ttl}
}

// Issue allocates a fresh 128-bit random match ID and stores the ticket
// under the configured TTL. Capacity is unbounded, so the only failure
// mode is the store itself.
func (i *Issuer) Issue(ctx context.Context, username string) (Ticket, error) {
	t := Ticket{MatchID: uuid.New(), Username: username}
	if err := i.store.Put(ctx, t.MatchID.String(), username, i.ttl); err != nil {
		slog.Error("Failed to store match ticket", "matchID", t.MatchID, "error", err)
		return Ticket{}, err
	}
	slog.Info("Match ticket issued", "matchID", t.MatchID, "username", username)
	return t, nil
}
