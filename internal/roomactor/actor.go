package roomactor

import (
	"sync"
	"time"

	"github.com/openword/roundserver/internal/clock"
	"github.com/openword/roundserver/internal/idgen"
	"github.com/openword/roundserver/internal/roomstate"
)

// commandBuffer bounds the queue of pending commands per room. A full
// queue back-pressures callers rather than growing without limit.
const commandBuffer = 64

// Metrics is the narrow observation seam the actor calls into; nil is a
// valid value (every call is nil-checked), and internal/metrics supplies
// the real prometheus-backed implementation.
type Metrics interface {
	ObserveCommand(roomCode, command, outcome string)
	SetSubscribers(roomCode string, count int)
}

// JoinResult is the actor-level return of SubmitJoin, since the control
// surface needs the generated requestId alongside the snapshot (spec.md
// §6.1 `POST /join` response shape).
type JoinResult struct {
	RequestID   string
	Participant roomstate.ParticipantView
	Status      roomstate.ParticipantStatus
	Snapshot    roomstate.Snapshot
}

// Actor is the single logical owner of one room's state, per spec.md §4.1.
// All mutation flows through commands, a closure-based command queue
// processed one at a time by run, so no transition ever observes a
// partially mutated Room.
type Actor struct {
	code     string
	clk      clock.Clock
	ids      *idgen.Generator
	metrics  Metrics
	commands chan func()

	hub   *hub
	timer *time.Timer
	state roomstate.Room

	doneOnce sync.Once
	doneCh   chan struct{}
	stopCh   chan struct{}
}

// New starts a room actor already in the given initial state (built by
// roomstate.NewRoom at registry creation time) and returns it running.
func New(code string, initial roomstate.Room, clk clock.Clock, ids *idgen.Generator, metrics Metrics) *Actor {
	a := &Actor{
		code:     code,
		clk:      clk,
		ids:      ids,
		metrics:  metrics,
		commands: make(chan func(), commandBuffer),
		hub:      newHub(),
		state:    initial,
		doneCh:   make(chan struct{}),
		stopCh:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	for {
		select {
		case cmd := <-a.commands:
			cmd()
		case <-a.stopCh:
			return
		}
	}
}

// Stop terminates the actor's goroutine. The registry calls this only
// after Done() has fired and every subscriber has disconnected. commands
// is never closed (a pending timer fire could still try to send on it),
// stopCh is the sole shutdown signal.
func (a *Actor) Stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
	close(a.stopCh)
}

// Done reports when the game has reached a terminal status with no
// subscribers left attached, the registry's destroy condition (spec.md
// §4.6).
func (a *Actor) Done() <-chan struct{} {
	return a.doneCh
}

func (a *Actor) checkDone() {
	terminal := a.state.Game.Status == roomstate.GameCancelled || a.state.Game.Status == roomstate.GameFinished
	if terminal && a.hub.count() == 0 {
		a.doneOnce.Do(func() { close(a.doneCh) })
	}
}

func (a *Actor) observe(command, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveCommand(a.code, command, outcome)
	}
}

// rearmTimer keeps the single scheduled deadline in sync with the current
// active round, per spec.md §5: rearmed on every callNumber, disarmed on
// any round-ending transition.
func (a *Actor) rearmTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	ar := a.state.Game.ActiveRound
	if ar == nil || ar.EndsAt == nil {
		return
	}
	d := ar.EndsAt.Sub(a.clk.Now())
	if d < 0 {
		d = 0
	}
	a.timer = time.AfterFunc(d, func() {
		select {
		case a.commands <- a.handleTimerExpired:
		case <-a.stopCh:
		}
	})
}

// handleTimerExpired enqueues as a normal command so it never preempts a
// running transition, per spec.md §4.1 ("scheduler-only").
func (a *Actor) handleTimerExpired() {
	now := a.clk.Now()
	next, ev := roomstate.TimerExpired(a.state, now)
	if ev == nil {
		return // late fire: state already moved on, a no-op per spec.md §5
	}
	a.state = next
	snap := roomstate.Project(a.state)
	ev.Snapshot = &snap
	a.hub.broadcast(*ev)
	a.rearmTimer()
	a.checkDone()
	a.observe("timerExpired", "ok")
}

type mutation func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure)

// do runs a standard "(Room, now) -> (Room, Event, Failure)" transition on
// the actor's goroutine and returns the resulting snapshot.
func (a *Actor) do(command string, fn mutation) (roomstate.Snapshot, *roomstate.Failure) {
	type result struct {
		snap roomstate.Snapshot
		err  *roomstate.Failure
	}
	reply := make(chan result, 1)
	a.commands <- func() {
		now := a.clk.Now()
		next, ev, ferr := fn(now)
		if ferr != nil {
			a.observe(command, string(ferr.Kind))
			reply <- result{err: ferr}
			return
		}
		a.state = next
		a.rearmTimer()
		snap := roomstate.Project(a.state)
		ev.Snapshot = &snap
		a.hub.broadcast(ev)
		a.checkDone()
		a.observe(command, "ok")
		reply <- result{snap: snap}
	}
	r := <-reply
	return r.snap, r.err
}

func (a *Actor) ReviewJoin(hostToken, requestID string, approve bool) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("reviewJoin", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.ReviewJoin(a.state, hostToken, requestID, approve, now)
	})
}

func (a *Actor) StartGame(hostToken string, cfg *roomstate.GameConfig) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("startGame", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.StartGame(a.state, hostToken, cfg, now)
	})
}

func (a *Actor) CallNumber(participantID string, number int) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("callNumber", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.CallNumber(a.state, participantID, number, now)
	})
}

func (a *Actor) SubmitAnswers(participantID string, answers roomstate.FieldSet) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("submitAnswers", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.SubmitAnswers(a.state, participantID, answers, now)
	})
}

func (a *Actor) EndRoundEarly(participantID string) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("endRoundEarly", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.EndRoundEarly(a.state, participantID, now)
	})
}

func (a *Actor) ScoreSubmission(hostToken string, roundNumber int, participantID string, marks roomstate.FieldMarks) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("scoreSubmission", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.ScoreSubmission(a.state, hostToken, roundNumber, participantID, marks, now)
	})
}

func (a *Actor) PublishRound(hostToken string, roundNumber int) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("publishRound", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.PublishRound(a.state, hostToken, roundNumber, now)
	})
}

func (a *Actor) DiscardRound(hostToken string, roundNumber int) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("discardRound", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.DiscardRound(a.state, hostToken, roundNumber, now)
	})
}

func (a *Actor) CancelGame(hostToken string) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("cancelGame", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.CancelGame(a.state, hostToken, now)
	})
}

func (a *Actor) EndGame(hostToken string) (roomstate.Snapshot, *roomstate.Failure) {
	return a.do("endGame", func(now time.Time) (roomstate.Room, roomstate.Event, *roomstate.Failure) {
		return roomstate.EndGame(a.state, hostToken, now)
	})
}

// SubmitJoin has a bespoke reply shape (it mints a participant id via
// idgen, which is not something a pure roomstate transition may do
// itself), so it bypasses do.
func (a *Actor) SubmitJoin(name string) (JoinResult, *roomstate.Failure) {
	type result struct {
		res JoinResult
		err *roomstate.Failure
	}
	reply := make(chan result, 1)
	a.commands <- func() {
		now := a.clk.Now()
		id := a.ids.NewParticipantID()
		next, ev, ferr := roomstate.SubmitJoin(a.state, id, name, now)
		if ferr != nil {
			a.observe("submitJoin", string(ferr.Kind))
			reply <- result{err: ferr}
			return
		}
		a.state = next
		snap := roomstate.Project(a.state)
		ev.Snapshot = &snap
		a.hub.broadcast(ev)
		a.observe("submitJoin", "ok")
		reply <- result{res: JoinResult{
			RequestID:   id,
			Participant: roomstate.ProjectParticipant(*ev.Participant),
			Status:      ev.Participant.Status,
			Snapshot:    snap,
		}}
	}
	r := <-reply
	return r.res, r.err
}

// UpdateDraft produces no broadcast event (spec.md §6.2's event list omits
// draft updates), so it returns only a Failure.
func (a *Actor) UpdateDraft(participantID string, partial roomstate.FieldSet) *roomstate.Failure {
	reply := make(chan *roomstate.Failure, 1)
	a.commands <- func() {
		now := a.clk.Now()
		next, ferr := roomstate.UpdateDraft(a.state, participantID, partial, now)
		if ferr != nil {
			a.observe("updateDraft", string(ferr.Kind))
			reply <- ferr
			return
		}
		a.state = next
		a.observe("updateDraft", "ok")
		reply <- nil
	}
	return <-reply
}

// Snapshot is a read-only projection, served from a stable state reference
// taken on the actor's own goroutine (spec.md §5).
func (a *Actor) Snapshot() roomstate.Snapshot {
	reply := make(chan roomstate.Snapshot, 1)
	a.commands <- func() {
		reply <- roomstate.Project(a.state)
	}
	return <-reply
}

// Subscribe registers a new push subscriber and returns its event channel
// plus an unsubscribe func, per spec.md §4.1 subscribe()/§4.5.
func (a *Actor) Subscribe() (<-chan WireEvent, func()) {
	sub := &subscriber{ch: make(chan WireEvent, subscriberBuffer)}
	added := make(chan struct{})
	a.commands <- func() {
		a.hub.add(sub)
		sub.ch <- WireEvent{Type: "connected"}
		snap := roomstate.Project(a.state)
		sub.ch <- WireEvent{Type: "snapshot", Snapshot: &snap}
		a.hub.broadcastPresence()
		if a.metrics != nil {
			a.metrics.SetSubscribers(a.code, a.hub.count())
		}
		close(added)
	}
	<-added

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			done := make(chan struct{})
			a.commands <- func() {
				a.hub.remove(sub)
				a.hub.broadcastPresence()
				if a.metrics != nil {
					a.metrics.SetSubscribers(a.code, a.hub.count())
				}
				a.checkDone()
				close(done)
			}
			<-done
		})
	}
	return sub.ch, unsubscribe
}

// SubscriberCount reports the current push-subscriber count, read through
// the command queue for a consistent view.
func (a *Actor) SubscriberCount() int {
	reply := make(chan int, 1)
	a.commands <- func() {
		reply <- a.hub.count()
	}
	return <-reply
}
