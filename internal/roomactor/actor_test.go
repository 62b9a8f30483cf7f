package roomactor

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openword/roundserver/internal/clock"
	"github.com/openword/roundserver/internal/idgen"
	"github.com/openword/roundserver/internal/roomstate"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// steppedClock is a clock.Clock whose instant a test moves forward by hand,
// e.g. past a round's countdown.
type steppedClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func newTestActor(t *testing.T) (*Actor, string) {
	t.Helper()
	return newTestActorWithClock(t, clock.Fixed{At: epoch})
}

func newTestActorWithClock(t *testing.T, clk clock.Clock) (*Actor, string) {
	t.Helper()
	const hostToken = "test-host-token"
	initial, ferr := roomstate.NewRoom("ABCD12", "Hosty", 4, hostToken, epoch)
	require.Nil(t, ferr)
	ids := idgen.New([]byte("signing-key"))
	a := New("ABCD12", initial, clk, ids, nil)
	t.Cleanup(a.Stop)
	return a, hostToken
}

func TestActor_SubmitJoinReviewJoinStart(t *testing.T) {
	a, hostToken := newTestActor(t)

	joinResult, ferr := a.SubmitJoin("Alice")
	require.Nil(t, ferr)
	assert.Equal(t, roomstate.StatusPending, joinResult.Status)

	snap, ferr := a.ReviewJoin(hostToken, joinResult.RequestID, true)
	require.Nil(t, ferr)
	assert.Equal(t, 2, snap.Counts.Admitted)

	snap, ferr = a.StartGame(hostToken, nil)
	require.Nil(t, ferr)
	assert.Equal(t, roomstate.GameInProgress, snap.Game.Status)
}

func TestActor_CallNumberAndSubmitAnswersEndsRoundOnFirstSubmission(t *testing.T) {
	clk := &steppedClock{at: epoch}
	a, hostToken := newTestActorWithClock(t, clk)

	joinResult, ferr := a.SubmitJoin("Alice")
	require.Nil(t, ferr)
	_, ferr = a.ReviewJoin(hostToken, joinResult.RequestID, true)
	require.Nil(t, ferr)

	cfg := roomstate.DefaultGameConfig()
	cfg.EndRule = roomstate.EndRuleFirstSubmission
	_, ferr = a.StartGame(hostToken, &cfg)
	require.Nil(t, ferr)

	snap, ferr := a.CallNumber(roomstate.HostParticipantID, 1)
	require.Nil(t, ferr)
	require.NotNil(t, snap.Game.ActiveRound)

	// Answers are refused during the 3-second countdown after a call.
	clk.Advance(3 * time.Second)
	snap, ferr = a.SubmitAnswers(joinResult.Participant.ID, roomstate.FieldSet{Name: "Eve"})
	require.Nil(t, ferr)
	assert.Nil(t, snap.Game.ActiveRound, "FIRST_SUBMISSION end rule should close the round immediately")
	require.Len(t, snap.Game.CompletedRounds, 1)
}

func TestActor_SnapshotNeverExposesHostToken(t *testing.T) {
	a, hostToken := newTestActor(t)
	snap := a.Snapshot()
	assert.NotNil(t, snap.Participants)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), hostToken)
}

func TestActor_SubscribeReceivesConnectedSnapshotThenPresence(t *testing.T) {
	a, _ := newTestActor(t)
	events, unsubscribe := a.Subscribe()
	defer unsubscribe()

	first := <-events
	assert.Equal(t, "connected", first.Type)
	second := <-events
	assert.Equal(t, "snapshot", second.Type)
	require.NotNil(t, second.Snapshot)
	third := <-events
	assert.Equal(t, "presence", third.Type)
	assert.Equal(t, 1, third.Count)
}

func TestActor_SubscribeCountTracksConnectAndDisconnect(t *testing.T) {
	a, _ := newTestActor(t)
	assert.Equal(t, 0, a.SubscriberCount())

	_, unsubscribe := a.Subscribe()
	assert.Equal(t, 1, a.SubscriberCount())

	unsubscribe()
	assert.Equal(t, 0, a.SubscriberCount())
}

func TestActor_DoneFiresOnlyAfterTerminalAndDrained(t *testing.T) {
	a, hostToken := newTestActor(t)
	_, unsubscribe := a.Subscribe()

	select {
	case <-a.Done():
		t.Fatal("actor must not be done while a subscriber is still attached")
	case <-time.After(20 * time.Millisecond):
	}

	_, ferr := a.CancelGame(hostToken)
	require.Nil(t, ferr)

	select {
	case <-a.Done():
		t.Fatal("actor must not be done while a subscriber is still attached, even after a terminal status")
	case <-time.After(20 * time.Millisecond):
	}

	unsubscribe()
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("actor should report done once terminal and drained")
	}
}
