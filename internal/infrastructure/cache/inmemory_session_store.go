package cache

import (
	"context"
	"sync"
	"time"
)

// sessionEntry holds one session's dedup markers with expiration
type sessionEntry struct {
	checkout  *CheckoutMarker
	purchased bool
	expiresAt time.Time
}

// InMemorySessionStore implements SessionStore using in-memory maps.
// Suitable for single-instance deployments and testing; state is not
// shared across process instances.
type InMemorySessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	orders    map[string]time.Time
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySessionStore creates a new in-memory session store whose
// entries expire after ttl. It starts a background cleanup goroutine.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	store := &InMemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		orders:   make(map[string]time.Time),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// CheckoutMarker returns the stored marker for a session, or nil
func (s *InMemorySessionStore) CheckoutMarker(_ context.Context, sessionID string) (*CheckoutMarker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) || entry.checkout == nil {
		return nil, nil
	}
	marker := *entry.checkout
	return &marker, nil
}

// SetCheckoutMarker stores or replaces the session's checkout marker
func (s *InMemorySessionStore) SetCheckoutMarker(_ context.Context, sessionID string, marker CheckoutMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(sessionID)
	entry.checkout = &marker
	return nil
}

// PurchaseCompleted reports the session's purchase latch
func (s *InMemorySessionStore) PurchaseCompleted(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return entry.purchased, nil
}

// MarkPurchaseCompleted latches the session's purchase flag
func (s *InMemorySessionStore) MarkPurchaseCompleted(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry(sessionID).purchased = true
	return nil
}

// ClaimOrder atomically claims an order id; true only on the first claim
func (s *InMemorySessionStore) ClaimOrder(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.orders[orderID]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	s.orders[orderID] = time.Now().Add(s.ttl)
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemorySessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// entry fetches or creates a session entry, refreshing its expiration.
// Caller must hold the write lock.
func (s *InMemorySessionStore) entry(sessionID string) *sessionEntry {
	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		entry = &sessionEntry{}
		s.sessions[sessionID] = entry
	}
	entry.expiresAt = time.Now().Add(s.ttl)
	return entry
}

// cleanupLoop periodically removes expired sessions and order claims
func (s *InMemorySessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
	for id, expiry := range s.orders {
		if now.After(expiry) {
			delete(s.orders, id)
		}
	}
}

// Ensure InMemorySessionStore implements SessionStore
var _ SessionStore = (*InMemorySessionStore)(nil)
