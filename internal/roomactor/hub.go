package roomactor

import "github.com/openword/roundserver/internal/roomstate"

// subscriberBuffer is the bounded outbound buffer per spec.md §5 ("slow
// subscriber is dropped after overflow").
const subscriberBuffer = 32

type subscriber struct {
	ch chan WireEvent
}

// hub is the per-room set of push subscriptions, per spec.md §4.5. It is
// only ever touched from the owning Actor's single run-loop goroutine, so
// it needs no locking of its own — the same discipline the teacher's
// services.Hub approximates with a mutex, but here enforced structurally.
type hub struct {
	subs map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: map[*subscriber]struct{}{}}
}

func (h *hub) add(s *subscriber) {
	h.subs[s] = struct{}{}
}

func (h *hub) remove(s *subscriber) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

func (h *hub) count() int {
	return len(h.subs)
}

// broadcast converts a transition's Event into its wire form and fans it
// out; a subscriber whose buffer is full is dropped (spec.md §5), and a
// fresh presence broadcast follows so survivors see the updated count.
func (h *hub) broadcast(ev roomstate.Event) {
	h.broadcastAll(toWireEvent(ev))
}

func (h *hub) broadcastPresence() {
	h.broadcastAll(WireEvent{Type: "presence", Count: h.count()})
}

func (h *hub) broadcastAll(msg WireEvent) {
	var overflowed []*subscriber
	for s := range h.subs {
		select {
		case s.ch <- msg:
		default:
			overflowed = append(overflowed, s)
		}
	}
	if len(overflowed) == 0 {
		return
	}
	for _, s := range overflowed {
		h.remove(s)
	}
	presence := WireEvent{Type: "presence", Count: h.count()}
	for s := range h.subs {
		select {
		case s.ch <- presence:
		default:
		}
	}
}
