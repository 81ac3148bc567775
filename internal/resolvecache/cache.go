package resolvecache

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory table before expired entries are swept.
const DefaultCapacity = 200

// Cache maps a normalized domain to the slug of the tenant serving it. A
// negative entry records that the domain currently has no live mapping, so the
// directory is not queried again until the entry expires. Implementations must
// treat an entry past its TTL as a miss; it must never be served stale.
type Cache interface {
	// Get returns the cached slug for the domain. negative is true for a
	// cached "no such live domain" result; ok is false on a miss (absent or
	// expired).
	Get(domain string) (slug string, negative bool, ok bool)
	// Set stores a positive resolution.
	Set(domain, slug string, ttl time.Duration)
	// SetNegative stores a "no such live domain" result.
	SetNegative(domain string, ttl time.Duration)
	// Invalidate drops the entry so the next lookup hits the directory.
	Invalidate(domain string)
}

type entry struct {
	slug      string
	negative  bool
	expiresAt time.Time
}

// Memory is the in-process cache implementation. Entries are checked against
// their TTL on every read, and the whole table is swept once whenever a write
// pushes it past capacity, so memory stays bounded without a background timer.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]entry
	capacity int
}

// NewMemory creates an in-memory resolution cache. A non-positive capacity
// falls back to DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		entries:  make(map[string]entry),
		capacity: capacity,
	}
}

// Get returns the cached resolution for domain, treating expired entries as
// misses and dropping them on the way out.
func (m *Memory) Get(domain string) (string, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[domain]
	if !ok {
		return "", false, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, domain)
		return "", false, false
	}
	return e.slug, e.negative, true
}

// Set stores a positive resolution for domain.
func (m *Memory) Set(domain, slug string, ttl time.Duration) {
	m.put(domain, entry{slug: slug, expiresAt: time.Now().Add(ttl)})
}

// SetNegative stores a negative resolution for domain.
func (m *Memory) SetNegative(domain string, ttl time.Duration) {
	m.put(domain, entry{negative: true, expiresAt: time.Now().Add(ttl)})
}

// Invalidate drops the entry for domain, if any.
func (m *Memory) Invalidate(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, domain)
}

// Len reports the current number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) put(domain string, e entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[domain] = e
	if len(m.entries) > m.capacity {
		now := time.Now()
		for k, v := range m.entries {
			if now.After(v.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
}
