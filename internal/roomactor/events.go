// Package roomactor is the goroutine-per-room owner: it serialises every
// command against one internal/roomstate.Room, runs the round deadline
// scheduler, and fans out events to subscribers. Grounded on the teacher's
// services.Hub + runQuestionTimer (see DESIGN.md), generalised into a
// single actor goroutine per spec.md §4.1/§5.
package roomactor

import "github.com/openword/roundserver/internal/roomstate"

// WireEvent is the JSON shape sent down the push surface, per spec.md
// §6.2. It is the union of every event discriminant: unused fields are
// omitted via `omitempty` rather than sent as null/zero noise.
type WireEvent struct {
	Type           string                         `json:"type"`
	Count          int                            `json:"count,omitempty"`
	Snapshot       *roomstate.Snapshot            `json:"snapshot,omitempty"`
	Participant    *roomstate.ParticipantView     `json:"participant,omitempty"`
	ParticipantID  string                         `json:"participantId,omitempty"`
	Reason         roomstate.EndReason            `json:"reason,omitempty"`
	RoundNumber    int                            `json:"roundNumber,omitempty"`
	CompletedRound *roomstate.CompletedRoundView  `json:"completedRound,omitempty"`
}

func toWireEvent(ev roomstate.Event) WireEvent {
	w := WireEvent{
		Type:          string(ev.Type),
		Snapshot:      ev.Snapshot,
		ParticipantID: ev.ParticipantID,
		Reason:        ev.Reason,
		RoundNumber:   ev.RoundNumber,
	}
	if ev.Participant != nil {
		pv := roomstate.ProjectParticipant(*ev.Participant)
		w.Participant = &pv
	}
	if ev.CompletedRound != nil {
		crv := roomstate.ProjectCompletedRound(*ev.CompletedRound)
		w.CompletedRound = &crv
	}
	return w
}
