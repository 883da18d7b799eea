// Package store defines the contract shared by the four backing stores and
// the state guard each of them embeds.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors returned by Lifecycle.
var (
	ErrNotReady          = errors.New("store not ready")
	ErrClosed            = errors.New("store closed")
	ErrInvalidTransition = errors.New("invalid store state transition")
	// ErrNotFound is returned by lookups with no result.
	ErrNotFound = errors.New("not found")
)

// Kind identifies one of the backing stores. The numeric order is the
// startup order.
type Kind int

const (
	MapStore Kind = iota + 1
	DocumentStore
	PathStore
	EmergencyStore
)

// Kinds lists every store kind in startup order.
func Kinds() []Kind {
	return []Kind{MapStore, DocumentStore, PathStore, EmergencyStore}
}

// Rank is the position of k in the startup order, or -1 for an unknown kind.
func (k Kind) Rank() int {
	switch k {
	case MapStore, DocumentStore, PathStore, EmergencyStore:
		return int(k) - 1
	default:
		return -1
	}
}

func (k Kind) String() string {
	switch k {
	case MapStore:
		return "map"
	case DocumentStore:
		return "document"
	case PathStore:
		return "path"
	case EmergencyStore:
		return "emergency"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is the lifecycle state of a store.
type State int

const (
	Uninitialized State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Handle is a backing store managed by the lifecycle manager.
//
// Open loads or connects the store and is legal only once, from
// Uninitialized. A failed Open leaves the store Uninitialized.
// Close releases whatever Open acquired. It is legal from any state, so a
// partially opened store can be cleaned up, and closing twice is a no-op.
type Handle interface {
	Kind() Kind
	State() State
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// Lifecycle is the state guard embedded by every store implementation.
// The zero value is Uninitialized. Open and Close are serialized; State and
// Check never block on a transition in progress.
type Lifecycle struct {
	transition sync.Mutex
	mu         sync.RWMutex
	state      State
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Lifecycle) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Open runs open as the Uninitialized -> Ready transition. Any other
// starting state fails with ErrInvalidTransition. If open fails the state
// stays Uninitialized.
func (l *Lifecycle) Open(open func() error) error {
	l.transition.Lock()
	defer l.transition.Unlock()

	if state := l.State(); state != Uninitialized {
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, state)
	}
	if err := open(); err != nil {
		return err
	}
	l.setState(Ready)
	return nil
}

// Close runs release and moves to Closed, whatever the outcome of release.
// Closing a Closed store returns nil without calling release.
func (l *Lifecycle) Close(release func() error) error {
	l.transition.Lock()
	defer l.transition.Unlock()

	if l.State() == Closed {
		return nil
	}
	l.setState(Closed)
	return release()
}

// Check reports whether the store may serve a domain operation.
func (l *Lifecycle) Check() error {
	switch l.State() {
	case Ready:
		return nil
	case Closed:
		return ErrClosed
	default:
		return ErrNotReady
	}
}
