package session

import (
	"context"
	"sync"

	"taskdeck/pkg/utils"
)

// Status is the authentication state of the gate
type Status int

const (
	// StatusInitial means the provider has not reported yet
	StatusInitial Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "initial"
}

// State is a snapshot of the gate
type State struct {
	Status    Status
	Principal Principal
	// Generation changes whenever the signed-in principal changes
	Generation uint64
}

// Loading reports whether the provider has not reported a user yet
func (s State) Loading() bool {
	return s.Status == StatusInitial
}

// Gate tracks the current principal. It subscribes to the identity provider
// once in Start and unsubscribes in Close.
type Gate struct {
	provider  IdentityProvider
	registrar Registrar

	mu          sync.RWMutex
	state       State
	registered  map[string]bool
	subs        map[int]chan State
	nextSub     int
	started     bool
	closed      bool
	unsubscribe func()

	pubMu  sync.Mutex
	events chan Principal
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewGate creates a gate in the INITIAL state. registrar may be nil.
func NewGate(provider IdentityProvider, registrar Registrar) *Gate {
	return &Gate{
		provider:   provider,
		registrar:  registrar,
		registered: make(map[string]bool),
		subs:       make(map[int]chan State),
		events:     make(chan Principal, 16),
		done:       make(chan struct{}),
	}
}

// Start installs the provider subscription and begins folding events.
// Calling Start more than once has no effect.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started || g.closed {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.fold(ctx)

	unsubscribe := g.provider.OnAuthStateChanged(g.enqueue)
	g.mu.Lock()
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
}

// Close removes the provider subscription, stops folding and closes every
// subscriber channel.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsubscribe := g.unsubscribe
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	close(g.done)
	g.wg.Wait()

	g.pubMu.Lock()
	g.mu.Lock()
	for id, ch := range g.subs {
		close(ch)
		delete(g.subs, id)
	}
	g.mu.Unlock()
	g.pubMu.Unlock()
}

// State returns the current snapshot
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Loading reports whether the gate is still waiting for the provider
func (g *Gate) Loading() bool {
	return g.State().Loading()
}

// Principal returns the signed-in principal or ErrUnauthenticated
func (g *Gate) Principal() (Principal, error) {
	st := g.State()
	if st.Status != StatusAuthenticated || st.Principal == nil {
		return nil, ErrUnauthenticated
	}
	return st.Principal, nil
}

// Token returns a fresh bearer token for the signed-in principal
func (g *Gate) Token(ctx context.Context) (string, error) {
	p, err := g.Principal()
	if err != nil {
		return "", err
	}
	return p.Token(ctx)
}

// Subscribe returns a channel that receives the current state and then
// every transition. Slow readers only see the latest state.
func (g *Gate) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := g.nextSub
	g.nextSub++
	g.subs[id] = ch
	ch <- g.state
	g.mu.Unlock()

	cancel := func() {
		g.pubMu.Lock()
		defer g.pubMu.Unlock()
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// WaitReady blocks until the provider has reported for the first time
func (g *Gate) WaitReady(ctx context.Context) (State, error) {
	states, cancel := g.Subscribe()
	defer cancel()
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return g.State(), context.Canceled
			}
			if !st.Loading() {
				return st, nil
			}
		case <-ctx.Done():
			return g.State(), ctx.Err()
		}
	}
}

// SignInWithEmail signs in with a password. On success it returns once the
// gate has folded the provider's callback.
func (g *Gate) SignInWithEmail(ctx context.Context, email, password string) error {
	return g.signIn(ctx, "email", func() (Principal, error) {
		return g.provider.SignInWithEmail(ctx, email, password)
	})
}

// SignInWithFederated signs in through the configured federated provider
func (g *Gate) SignInWithFederated(ctx context.Context) error {
	return g.signIn(ctx, "federated", func() (Principal, error) {
		return g.provider.SignInWithFederated(ctx)
	})
}

// SignUp creates an account and signs it in
func (g *Gate) SignUp(ctx context.Context, email, password, displayName string) error {
	return g.signIn(ctx, "sign-up", func() (Principal, error) {
		return g.provider.SignUpWithEmail(ctx, email, password, displayName)
	})
}

// SignOut signs out with the provider and forces the ANONYMOUS state
func (g *Gate) SignOut(ctx context.Context) error {
	if err := g.provider.SignOut(ctx); err != nil {
		utils.Error("Sign-out failed: %v", err)
		return AsIdentityError(err)
	}
	g.transition(StatusAnonymous, nil)
	return nil
}

func (g *Gate) signIn(ctx context.Context, method string, call func() (Principal, error)) error {
	states, cancel := g.Subscribe()
	defer cancel()

	p, err := call()
	if err != nil {
		ierr := AsIdentityError(err)
		utils.Error("Sign-in (%s) failed: %v", method, ierr)
		return ierr
	}
	utils.Log("Signed in (%s) as %s", method, p.UID())

	g.mu.RLock()
	started := g.started && !g.closed
	g.mu.RUnlock()
	if !started {
		return nil
	}

	for {
		select {
		case st, ok := <-states:
			if !ok {
				return nil
			}
			if st.Status == StatusAuthenticated && st.Principal != nil && st.Principal.UID() == p.UID() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Gate) enqueue(p Principal) {
	select {
	case g.events <- p:
	case <-g.done:
	}
}

func (g *Gate) fold(ctx context.Context) {
	defer g.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case p := <-g.events:
			g.apply(ctx, p)
		}
	}
}

func (g *Gate) apply(ctx context.Context, p Principal) {
	if p == nil {
		g.transition(StatusAnonymous, nil)
		return
	}

	g.mu.RLock()
	needsRegistration := !g.registered[p.UID()]
	g.mu.RUnlock()

	if needsRegistration && g.registrar != nil {
		if err := g.registrar.Register(ctx, p); err != nil {
			utils.Error("Registering user %s failed: %v", p.UID(), err)
		} else {
			g.mu.Lock()
			g.registered[p.UID()] = true
			g.mu.Unlock()
			utils.Log("Registered user %s", p.UID())
		}
	}

	g.transition(StatusAuthenticated, p)
}

func (g *Gate) transition(status Status, p Principal) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	g.mu.Lock()
	prev := g.state
	next := State{Status: status, Principal: p, Generation: prev.Generation}
	if prev.Status == status && samePrincipal(prev.Principal, p) {
		// Same user reported again; keep the newest handle without notifying.
		g.state.Principal = p
		g.mu.Unlock()
		return
	}
	next.Generation++
	g.state = next
	subs := make([]chan State, 0, len(g.subs))
	for _, ch := range g.subs {
		subs = append(subs, ch)
	}
	g.mu.Unlock()

	utils.Log("Session %s -> %s", prev.Status, status)
	for _, ch := range subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

func samePrincipal(a, b Principal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID() == b.UID()
}
