package fetcher

import (
	"sync"
	"time"
)

// domainEntry stores the preferred engine for a domain with a TTL.
type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// EngineMemory remembers which engine worked for each domain, so a chain
// hitting the same quiz host step after step skips the static attempt once
// the host is known to need rendering. Entries expire after the TTL.
type EngineMemory struct {
	store sync.Map // domain (string) -> *domainEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewEngineMemory creates an EngineMemory with the given TTL and starts
// a background goroutine that prunes expired entries every hour.
func NewEngineMemory(ttl time.Duration) *EngineMemory {
	m := &EngineMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get returns the remembered engine name for a domain, or "" if not found / expired.
func (m *EngineMemory) Get(domain string) string {
	val, ok := m.store.Load(domain)
	if !ok {
		return ""
	}
	entry := val.(*domainEntry)
	if time.Now().After(entry.expiresAt) {
		m.store.Delete(domain)
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a domain.
func (m *EngineMemory) Set(domain, engineName string) {
	m.store.Store(domain, &domainEntry{
		engineName: engineName,
		expiresAt:  time.Now().Add(m.ttl),
	})
}

// Delete removes the memory for a domain (e.g. after the remembered engine fails).
func (m *EngineMemory) Delete(domain string) {
	m.store.Delete(domain)
}

// Stop terminates the background cleanup goroutine.
func (m *EngineMemory) Stop() {
	close(m.done)
}

// cleanupLoop runs every hour, deleting expired entries.
func (m *EngineMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.store.Range(func(key, value any) bool {
				entry := value.(*domainEntry)
				if now.After(entry.expiresAt) {
					m.store.Delete(key)
				}
				return true
			})
		}
	}
}
