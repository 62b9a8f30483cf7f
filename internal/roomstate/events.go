package roomstate

// EventType is the event discriminant sent over the push surface, per
// spec.md §6.2. connected/presence/snapshot are hub-level concerns added by
// internal/roomactor, not produced by a pure transition.
type EventType string

const (
	EventJoinRequest          EventType = "join_request"
	EventAdmissionUpdate      EventType = "admission_update"
	EventGameStarted          EventType = "game_started"
	EventTurnCalled           EventType = "turn_called"
	EventSubmissionReceived   EventType = "submission_received"
	EventRoundEnded           EventType = "round_ended"
	EventSubmissionScored     EventType = "submission_scored"
	EventRoundScoresPublished EventType = "round_scores_published"
	EventRoundScoresDiscarded EventType = "round_scores_discarded"
	EventGameCancelled        EventType = "game_cancelled"
	EventGameEnded            EventType = "game_ended"
)

// Event is what a transition hands back alongside the new Room. The listener-
// convenience fields (Participant, Reason, RoundNumber, CompletedRound)
// duplicate information already in Snapshot; Snapshot is filled in by the
// actor once it has projected the post-transition Room, per spec.md §4.5.
type Event struct {
	Type           EventType
	Participant    *Participant
	Reason         EndReason
	RoundNumber    int
	CompletedRound *CompletedRound
	ParticipantID  string
	Snapshot       *Snapshot
}
