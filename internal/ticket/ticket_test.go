package ticket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ConsumeOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "match-1", "alice", time.Minute))
	require.NoError(t, s.Consume(ctx, "match-1", "alice"))

	// A second consume must fail: tickets are single use.
	assert.ErrorIs(t, s.Consume(ctx, "match-1", "alice"), ErrNotFound)
}

func TestMemoryStore_WrongHolder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "match-1", "alice", time.Minute))

	// Somebody else presenting the match ID gets nothing, and the ticket
	// stays intact for the player it was issued to.
	assert.ErrorIs(t, s.Consume(ctx, "match-1", "bob"), ErrNotFound)
	assert.NoError(t, s.Consume(ctx, "match-1", "alice"))
}

func TestMemoryStore_UnknownTicket(t *testing.T) {
	s := NewMemoryStore()

	err := s.Consume(context.Background(), "never-issued", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "match-1", "alice", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	err := s.Consume(ctx, "match-1", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssuer_Issue(t *testing.T) {
	s := NewMemoryStore()
	issuer := NewIssuer(s, time.Minute)
	ctx := context.Background()

	t1, err := issuer.Issue(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", t1.Username)
	assert.NotEqual(t, uuid.Nil, t1.MatchID)

	t2, err := issuer.Issue(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, t1.MatchID, t2.MatchID)

	// Issued tickets are claimable exactly once, by their holder.
	require.NoError(t, s.Consume(ctx, t1.MatchID.String(), "alice"))
	assert.ErrorIs(t, s.Consume(ctx, t1.MatchID.String(), "alice"), ErrNotFound)
}
