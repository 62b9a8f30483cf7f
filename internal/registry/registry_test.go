package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openword/roundserver/internal/clock"
	"github.com/openword/roundserver/internal/idgen"
	"github.com/openword/roundserver/internal/persistence"
)

func newTestRegistry() *Registry {
	clk := clock.Fixed{At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	ids := idgen.New([]byte("signing-key"))
	return New(clk, ids, persistence.NoopLogger{}, nil, nil)
}

func TestRegistry_CreateRoomThenGet(t *testing.T) {
	reg := newTestRegistry()
	result, ferr := reg.CreateRoom("Hosty", 4)
	require.Nil(t, ferr)
	assert.NotEmpty(t, result.RoomCode)
	assert.NotEmpty(t, result.HostToken)

	actor, ok := reg.Get(result.RoomCode)
	require.True(t, ok)
	snap := actor.Snapshot()
	assert.Equal(t, result.RoomCode, snap.Meta.RoomCode)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_GetUnknownCodeMisses(t *testing.T) {
	reg := newTestRegistry()
	_, ok := reg.Get("NOPE99")
	assert.False(t, ok)
}

func TestRegistry_RoomIsReapedAfterCancelAndDisconnect(t *testing.T) {
	reg := newTestRegistry()
	result, ferr := reg.CreateRoom("Hosty", 4)
	require.Nil(t, ferr)

	actor, ok := reg.Get(result.RoomCode)
	require.True(t, ok)

	_, unsubscribe := actor.Subscribe()
	_, ferr = actor.CancelGame(result.HostToken)
	require.Nil(t, ferr)
	unsubscribe()

	select {
	case <-actor.Done():
	case <-time.After(time.Second):
		t.Fatal("actor should report done after cancel + disconnect")
	}

	assert.Eventually(t, func() bool {
		_, ok := reg.Get(result.RoomCode)
		return !ok
	}, time.Second, 10*time.Millisecond, "registry should reap the actor once it reports done")
}
