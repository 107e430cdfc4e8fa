package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryPopulations(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.HasUnauthenticated())
	assert.False(t, r.HasAuthenticated())

	a := NewConn(&fakeLink{}, "")
	b := NewConn(&fakeLink{}, "")
	r.AddUnauthenticated(a)
	r.AddUnauthenticated(b)

	assert.True(t, r.HasUnauthenticated())
	unauth, auth := r.Counts()
	assert.Equal(t, 2, unauth)
	assert.Equal(t, 0, auth)

	// Authentication moves between populations.
	r.AddAuthenticated(a)
	unauth, auth = r.Counts()
	assert.Equal(t, 1, unauth)
	assert.Equal(t, 1, auth)
	assert.True(t, r.HasAuthenticated())

	r.Remove(a)
	r.Remove(b)
	unauth, auth = r.Counts()
	assert.Zero(t, unauth)
	assert.Zero(t, auth)
}

func TestRegistryAuthenticatedByIdentity(t *testing.T) {
	r := NewRegistry()

	a := NewConn(&fakeLink{}, "")
	a.Authenticate("key-1", "session-a", 1, a.OpenedAt())
	b := NewConn(&fakeLink{}, "")
	b.Authenticate("key-1", "session-b", 1, b.OpenedAt())
	other := NewConn(&fakeLink{}, "")
	other.Authenticate("key-2", "session-c", 1, other.OpenedAt())

	r.AddAuthenticated(a)
	r.AddAuthenticated(b)
	r.AddAuthenticated(other)

	got := r.AuthenticatedByIdentity("key-1", b)
	assert.Len(t, got, 1)
	assert.Same(t, a, got[0])

	assert.Empty(t, r.AuthenticatedByIdentity("key-3", nil))
}

func TestConnVersionAndCheckpointAreForwardOnly(t *testing.T) {
	c := NewConn(&fakeLink{}, "")
	now := c.OpenedAt()
	c.Authenticate("key-1", "session", 5, now)

	assert.False(t, c.AdvanceConfigVersion(4))
	assert.False(t, c.AdvanceConfigVersion(5))
	assert.Equal(t, int64(5), c.ConfigVersion())
	assert.True(t, c.AdvanceConfigVersion(6))
	assert.Equal(t, int64(6), c.ConfigVersion())

	earlier := now.Add(-1)
	c.AdvanceCheckpoint(earlier)
	assert.Equal(t, now, c.Checkpoint())
	later := now.Add(1)
	c.AdvanceCheckpoint(later)
	assert.Equal(t, later, c.Checkpoint())
}
