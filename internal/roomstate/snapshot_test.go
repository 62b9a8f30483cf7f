package roomstate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestProject_NeverLeaksHostTokenOrDraftAnswers(t *testing.T) {
	secretToken := gofakeit.UUID()
	room, ferr := NewRoom("WXYZ12", "Hosty", 4, secretToken, epoch)
	require.Nil(t, ferr)
	// admitParticipant authenticates with "host-token", so admit Alice with
	// this room's own token instead.
	room, ev, ferr := SubmitJoin(room, "Alice-id", "Alice", epoch)
	require.Nil(t, ferr)
	room, _, ferr = ReviewJoin(room, secretToken, ev.Participant.ID, true, epoch)
	require.Nil(t, ferr)
	aliceID := ev.Participant.ID
	room, _, ferr = StartGame(room, "host-token-wrong", nil, epoch)
	require.NotNil(t, ferr, "sanity: host-token-wrong must not equal the real token")
	room, _, ferr = StartGame(room, secretToken, nil, epoch)
	require.Nil(t, ferr)
	room, _, ferr = CallNumber(room, HostParticipantID, 1, epoch)
	require.Nil(t, ferr)

	secretDraftValue := gofakeit.Word() + "-secret-draft"
	afterCountdown := room.Game.ActiveRound.CountdownEndsAt
	room, ferr = UpdateDraft(room, aliceID, FieldSet{Name: secretDraftValue}, afterCountdown)
	require.Nil(t, ferr)

	snap := Project(room)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	body := string(raw)

	require.NotContains(t, body, secretToken, "Project must never expose the host bearer token")
	require.NotContains(t, body, secretDraftValue, "Project must never expose an unsubmitted draft answer")
	require.False(t, strings.Contains(strings.ToLower(body), "hosttoken"))
}

func TestProject_CountsMatchParticipantStatuses(t *testing.T) {
	room := newTestRoom(t, 4)
	room, _ = admitParticipant(t, room, "Alice")
	room, ev, ferr := SubmitJoin(room, "bob-id", "Bob", epoch)
	require.Nil(t, ferr)
	room, _, ferr = ReviewJoin(room, "host-token", ev.Participant.ID, false, epoch)
	require.Nil(t, ferr)
	room, _, ferr = SubmitJoin(room, "carol-id", "Carol", epoch)
	require.Nil(t, ferr)

	snap := Project(room)
	require.Equal(t, 2, snap.Counts.Admitted) // host + Alice
	require.Equal(t, 1, snap.Counts.Pending)  // Carol
	require.Equal(t, 1, snap.Counts.Rejected) // Bob
}

func TestProjectParticipant_MatchesProjectsOwnRendering(t *testing.T) {
	room := newTestRoom(t, 4)
	room, _ = admitParticipant(t, room, "Alice")

	snap := Project(room)
	var viaSnapshot ParticipantView
	for _, p := range snap.Participants {
		if p.ID == HostParticipantID {
			viaSnapshot = p
		}
	}
	hostParticipant, _ := room.findParticipant(HostParticipantID)
	viaHelper := ProjectParticipant(hostParticipant)

	if diff := cmp.Diff(viaSnapshot, viaHelper); diff != "" {
		t.Fatalf("ProjectParticipant diverged from Project's own rendering (-snapshot +helper):\n%s", diff)
	}
}

func TestProject_LeaderboardOnlyCountsPublishedRounds(t *testing.T) {
	room := newTestRoom(t, 4)
	room, aliceID := admitParticipant(t, room, "Alice")
	room, _, ferr := StartGame(room, "host-token", nil, epoch)
	require.Nil(t, ferr)
	room, _, ferr = CallNumber(room, HostParticipantID, 1, epoch)
	require.Nil(t, ferr)
	afterCountdown := room.Game.ActiveRound.CountdownEndsAt
	room, _, ferr = SubmitAnswers(room, aliceID, FieldSet{Name: "Eve"}, afterCountdown)
	require.Nil(t, ferr)
	room, _, ferr = EndRoundEarly(room, HostParticipantID, afterCountdown)
	require.Nil(t, ferr)

	snap := Project(room)
	for _, entry := range snap.Game.Scoring.Leaderboard {
		require.Empty(t, entry.History, "no round has been published yet")
		require.Zero(t, entry.TotalScore)
	}

	room, _, ferr = ScoreSubmission(room, "host-token", 1, aliceID, FieldMarks{Name: true}, epoch)
	require.Nil(t, ferr)
	room, _, ferr = ScoreSubmission(room, "host-token", 1, HostParticipantID, FieldMarks{}, epoch)
	require.Nil(t, ferr)
	room, _, ferr = PublishRound(room, "host-token", 1, epoch)
	require.Nil(t, ferr)

	snap = Project(room)
	found := false
	for _, entry := range snap.Game.Scoring.Leaderboard {
		if entry.ParticipantID == aliceID {
			found = true
			require.Equal(t, 10.0, entry.TotalScore)
			require.Len(t, entry.History, 1)
		}
	}
	require.True(t, found)
}
