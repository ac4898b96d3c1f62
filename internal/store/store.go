package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/events"
)

const subscriberBuffer = 32

// Store the only shared mutable resource of the wallet. Each Dispatch replaces
// the whole state under the lock so readers never observe a half-applied event.
type Store struct {
	mu          sync.RWMutex
	state       State
	broadcaster *events.Broadcaster[State]
	logger      *zap.Logger
}

// New creates a store in the disconnected state.
func New(fallback domain.PriceQuote, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:       NewState(fallback),
		broadcaster: events.NewBroadcaster[State](subscriberBuffer),
		logger:      logger,
	}
}

// Dispatch applies e and returns a copy of the resulting state and whether it changed.
// The reduced state is always kept; only changed states are published to
// subscribers, in dispatch order.
func (s *Store) Dispatch(e Event) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := Reduce(s.state, e)
	s.state = next
	if !changed {
		s.logger.Debug("state unchanged", zap.String("event", e.Name()),
			zap.String("state", next.Session.ConnectionState.String()))
		return next.clone(), false
	}

	s.broadcaster.Publish(next.clone())
	return next.clone(), true
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// BeginRefresh allocates the sequence a refresh cycle must present when it completes.
func (s *Store) BeginRefresh(address string) uint64 {
	st, _ := s.Dispatch(RefreshStarted{Address: address})
	return st.LastRefreshSeq()
}

// Subscribe returns a channel receiving every changed state.
func (s *Store) Subscribe() chan State {
	return s.broadcaster.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch chan State) {
	s.broadcaster.Unsubscribe(ch)
}

// Close releases all subscribers.
func (s *Store) Close() {
	s.broadcaster.Close()
}
