package throttle

import (
	"context"
	"sync"
	"time"
)

// record is the per-identifier state. A zero bannedUntil means the record is counting.
type record struct {
	attempts    int
	bannedUntil time.Time
	lastFailure time.Time
}

func (r record) banned() bool {
	return !r.bannedUntil.IsZero()
}

// Memory is an in-process Throttle. Expired bans are observed lazily on access;
// Sweep can be run periodically to bound memory.
type Memory struct {
	mu      sync.Mutex
	records map[string]record
	config  Config
}

// type check
var _ Throttle = (*Memory)(nil)

// NewMemory creates a new in-memory throttle
func NewMemory(config Config) *Memory {
	return &Memory{
		records: make(map[string]record),
		config:  config,
	}
}

// Check returns the admission decision for identifier at now
func (m *Memory) Check(identifier string, now time.Time) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identifier]
	if !ok || !rec.banned() {
		return Allowed
	}

	if now.Before(rec.bannedUntil) {
		return Decision{Banned: true, Remaining: rec.bannedUntil.Sub(now)}
	}

	return Allowed
}

// Fail records a confirmed bad-credential attempt for identifier at now
func (m *Memory) Fail(identifier string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[identifier]

	if rec.banned() {
		if now.Before(rec.bannedUntil) {
			// Still banned: restart the ban window
			rec.attempts = m.config.Threshold - 1
		} else {
			rec.attempts = 0
		}
		rec.bannedUntil = time.Time{}
	}

	rec.attempts++
	rec.lastFailure = now
	if rec.attempts >= m.config.Threshold {
		rec.bannedUntil = now.Add(m.config.BanDuration)
	}

	m.records[identifier] = rec
}

// Clear removes any record for identifier
func (m *Memory) Clear(identifier string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, identifier)
}

// CheckAdmission implements Throttle. It never fails.
func (m *Memory) CheckAdmission(_ context.Context, identifier string, now time.Time) (Decision, error) {
	return m.Check(identifier, now), nil
}

// RecordFailure implements Throttle. It never fails.
func (m *Memory) RecordFailure(_ context.Context, identifier string, now time.Time) error {
	m.Fail(identifier, now)
	return nil
}

// RecordSuccess implements Throttle. It never fails.
func (m *Memory) RecordSuccess(_ context.Context, identifier string) error {
	m.Clear(identifier)
	return nil
}

// Sweep deletes records that no longer affect any decision: bans that have
// expired, and counting records idle longer than IdleTTL when that is enabled.
// Returns the number of records removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, rec := range m.records {
		switch {
		case rec.banned() && !now.Before(rec.bannedUntil):
			delete(m.records, id)
			removed++
		case !rec.banned() && m.config.IdleTTL > 0 && now.Sub(rec.lastFailure) >= m.config.IdleTTL:
			delete(m.records, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of tracked identifiers
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.records)
}

