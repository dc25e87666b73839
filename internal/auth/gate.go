package auth

import (
	"sync"
)

type State int

const (
	// StateUnknown до первого уведомления провайдера; доступ закрыт
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Gate следит за уведомлениями провайдера и отдает производный признак
// "authenticated" вместе с текущим пользователем
type Gate struct {
	mu       sync.Mutex
	state    State
	identity *Identity

	listeners   listeners[gateEvent]
	unsubscribe func()
}

type gateEvent struct {
	state    State
	identity *Identity
}

func NewGate(provider Provider) *Gate {
	g := &Gate{state: StateUnknown}
	g.unsubscribe = provider.SubscribeToSessionChanges(g.handle)
	return g
}

func (g *Gate) handle(identity *Identity) {
	g.mu.Lock()
	if identity != nil {
		id := *identity
		g.state = StateAuthenticated
		g.identity = &id
	} else {
		g.state = StateUnauthenticated
		g.identity = nil
	}
	event := gateEvent{state: g.state, identity: g.identityLocked()}
	g.mu.Unlock()

	g.listeners.notify(event)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authenticated false и для Unknown, и для Unauthenticated
func (g *Gate) Authenticated() bool {
	return g.State() == StateAuthenticated
}

func (g *Gate) Identity() (Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil {
		return Identity{}, false
	}
	return *g.identity, true
}

// Subscribe callback вызывается на каждое уведомление провайдера
func (g *Gate) Subscribe(callback func(State, *Identity)) func() {
	return g.listeners.add(func(e gateEvent) {
		callback(e.state, e.identity)
	})
}

// Close отписывается от провайдера; состояние больше не меняется
func (g *Gate) Close() {
	g.unsubscribe()
}

func (g *Gate) identityLocked() *Identity {
	if g.identity == nil {
		return nil
	}
	id := *g.identity
	return &id
}
