// Package registry maps room codes to their actor, generating codes with
// collision retry and lazily creating rooms, per spec.md §4.6. Grounded on
// the teacher's services.GameService (PIN generation + in-memory/Redis
// lookup) and on rakaoran-GuessTheObject's LobbyActor select-loop
// (add/remove-room channels), generalized to a mutex-guarded map since the
// registry's own critical sections are short (insert/remove only, per
// spec.md §5 "Shared resources").
package registry

import (
	"sync"

	"github.com/openword/roundserver/internal/clock"
	"github.com/openword/roundserver/internal/idgen"
	"github.com/openword/roundserver/internal/persistence"
	"github.com/openword/roundserver/internal/roomactor"
	"github.com/openword/roundserver/internal/roomstate"
)

// CreateResult is what createRoom returns to the control surface, per
// spec.md §4.6.
type CreateResult struct {
	RoomCode        string
	HostName        string
	MaxParticipants int
	HostToken       string
}

// RoomsGauge reports how many rooms the registry currently retains. It is
// satisfied by internal/metrics.Recorder; passing nil disables reporting.
type RoomsGauge interface {
	SetRoomsActive(count int)
}

// Registry owns the set of live room actors.
type Registry struct {
	clk     clock.Clock
	ids     *idgen.Generator
	logger  persistence.RoomLogger
	metrics roomactor.Metrics
	gauge   RoomsGauge

	mu    sync.Mutex
	rooms map[string]*roomactor.Actor
}

func New(clk clock.Clock, ids *idgen.Generator, logger persistence.RoomLogger, metrics roomactor.Metrics, gauge RoomsGauge) *Registry {
	return &Registry{
		clk:     clk,
		ids:     ids,
		logger:  logger,
		rooms:   map[string]*roomactor.Actor{},
		metrics: metrics,
		gauge:   gauge,
	}
}

func (r *Registry) reportRoomsActive() {
	if r.gauge == nil {
		return
	}
	r.gauge.SetRoomsActive(len(r.rooms))
}

// CreateRoom generates a unique code, builds the initial LOBBY state, and
// starts its actor, per spec.md §4.6.
func (r *Registry) CreateRoom(hostName string, maxParticipants int) (CreateResult, *roomstate.Failure) {
	r.mu.Lock()
	code, err := r.ids.NewRoomCode(func(code string) bool {
		_, exists := r.rooms[code]
		return exists
	})
	if err != nil {
		r.mu.Unlock()
		return CreateResult{}, &roomstate.Failure{Kind: roomstate.BadRequest, Message: "could not allocate a room code"}
	}

	hostToken, err := r.ids.NewHostToken(code)
	if err != nil {
		r.mu.Unlock()
		return CreateResult{}, &roomstate.Failure{Kind: roomstate.BadRequest, Message: "could not mint a host token"}
	}

	now := r.clk.Now()
	initial, ferr := roomstate.NewRoom(code, hostName, maxParticipants, hostToken, now)
	if ferr != nil {
		r.mu.Unlock()
		return CreateResult{}, ferr
	}

	actor := roomactor.New(code, initial, r.clk, r.ids, r.metrics)
	r.rooms[code] = actor
	r.reportRoomsActive()
	r.mu.Unlock()

	go r.reapWhenDone(code, actor)

	// Best-effort append-only log, per spec.md §6.3: failure never fails
	// the create.
	if r.logger != nil {
		_ = r.logger.LogRoomCreated(persistence.RoomLogEntry{
			RoomCode:        code,
			HostName:        initial.HostName,
			MaxParticipants: maxParticipants,
			Status:          string(roomstate.GameLobby),
			CreatedAt:       now,
		})
	}

	return CreateResult{
		RoomCode:        code,
		HostName:        initial.HostName,
		MaxParticipants: maxParticipants,
		HostToken:       hostToken,
	}, nil
}

// Get looks up a room's actor by its normalised code.
func (r *Registry) Get(code string) (*roomactor.Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rooms[code]
	return a, ok
}

// Count reports how many rooms are currently retained. The rooms_active
// gauge is updated separately, by reportRoomsActive.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// reapWhenDone waits for the actor to report terminal-and-drained (spec.md
// §4.6 "retained at least until game status is terminal ... and all
// subscribers have disconnected") and then removes it from the map and
// stops its goroutine.
func (r *Registry) reapWhenDone(code string, actor *roomactor.Actor) {
	<-actor.Done()
	r.mu.Lock()
	if r.rooms[code] == actor {
		delete(r.rooms, code)
	}
	r.reportRoomsActive()
	r.mu.Unlock()
	actor.Stop()
}
