package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at returns a fixed instant offset by ms milliseconds
func at(ms int64) time.Time {
	return time.UnixMilli(1_700_000_000_000 + ms)
}

func (m *Memory) attempts(identifier string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.records[identifier].attempts
}

func newTestMemory() *Memory {
	return NewMemory(Config{Threshold: 3, BanDuration: 30 * time.Second})
}

func TestMemory_Scenario(t *testing.T) {
	m := newTestMemory()
	id := "a@x.com"

	m.Fail(id, at(0))
	assert.Equal(t, 1, m.attempts(id))
	assert.False(t, m.Check(id, at(0)).Banned)

	m.Fail(id, at(100))
	assert.Equal(t, 2, m.attempts(id))
	assert.False(t, m.Check(id, at(100)).Banned)

	m.Fail(id, at(200))

	d := m.Check(id, at(300))
	assert.True(t, d.Banned)
	assert.Equal(t, 29900*time.Millisecond, d.Remaining)
	assert.Equal(t, 30, d.RetryAfterSeconds())

	assert.False(t, m.Check(id, at(30200)).Banned)

	m.Clear(id)
	assert.False(t, m.Check(id, at(30200)).Banned)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_BanAfterThreshold(t *testing.T) {
	m := newTestMemory()

	for i := 0; i < 3; i++ {
		assert.False(t, m.Check("user@example.com", at(0)).Banned, "attempt %d should be admitted", i+1)
		m.Fail("user@example.com", at(0))
	}

	assert.True(t, m.Check("user@example.com", at(0)).Banned)
}

func TestMemory_BanExpiry(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 3; i++ {
		m.Fail("user@example.com", at(1000))
	}

	assert.True(t, m.Check("user@example.com", at(1000+30000-1)).Banned)
	assert.False(t, m.Check("user@example.com", at(1000+30000)).Banned)
}

func TestMemory_SuccessResets(t *testing.T) {
	tests := []struct {
		name     string
		failures int
	}{
		{"absent", 0},
		{"counting", 2},
		{"banned", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMemory()
			for i := 0; i < tt.failures; i++ {
				m.Fail("user@example.com", at(0))
			}

			m.Clear("user@example.com")

			assert.False(t, m.Check("user@example.com", at(1)).Banned)
			assert.Equal(t, 0, m.attempts("user@example.com"))
		})
	}
}

func TestMemory_RemainingRoundsUp(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 3; i++ {
		m.Fail("user@example.com", at(0))
	}
	until := int64(30000)

	d := m.Check("user@example.com", at(until-2500))
	require.True(t, d.Banned)
	assert.Equal(t, 3, d.RetryAfterSeconds())

	d = m.Check("user@example.com", at(until-1))
	require.True(t, d.Banned)
	assert.Equal(t, 1, d.RetryAfterSeconds())

	d = m.Check("user@example.com", at(until-3000))
	require.True(t, d.Banned)
	assert.Equal(t, 3, d.RetryAfterSeconds())
}

func TestMemory_IdentifiersAreIndependent(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 3; i++ {
		m.Fail("a@example.com", at(0))
	}
	m.Fail("b@example.com", at(0))

	assert.True(t, m.Check("a@example.com", at(10)).Banned)
	assert.False(t, m.Check("b@example.com", at(10)).Banned)
	assert.Equal(t, 1, m.attempts("b@example.com"))

	m.Clear("b@example.com")
	assert.True(t, m.Check("a@example.com", at(10)).Banned)
}

func TestMemory_FailureAfterExpiryRestartsCount(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 3; i++ {
		m.Fail("user@example.com", at(0))
	}

	m.Fail("user@example.com", at(30001))

	assert.Equal(t, 1, m.attempts("user@example.com"))
	assert.False(t, m.Check("user@example.com", at(30001)).Banned)
}

func TestMemory_FailureDuringBanRestartsWindow(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 3; i++ {
		m.Fail("user@example.com", at(0))
	}

	m.Fail("user@example.com", at(10000))

	d := m.Check("user@example.com", at(35000))
	assert.True(t, d.Banned)
	assert.Equal(t, 5*time.Second, d.Remaining)
}

func TestMemory_ThresholdOfOne(t *testing.T) {
	m := NewMemory(Config{Threshold: 1, BanDuration: time.Second})

	m.Fail("user@example.com", at(0))
	assert.True(t, m.Check("user@example.com", at(0)).Banned)

	m.Fail("user@example.com", at(1000))
	assert.True(t, m.Check("user@example.com", at(1000)).Banned)
}

func TestMemory_CheckHasNoSideEffects(t *testing.T) {
	m := newTestMemory()

	m.Check("user@example.com", at(0))
	assert.Equal(t, 0, m.Len())

	m.Fail("user@example.com", at(0))
	m.Check("user@example.com", at(0))
	assert.Equal(t, 1, m.attempts("user@example.com"))
}

func TestMemory_Sweep(t *testing.T) {
	t.Run("removes expired bans only", func(t *testing.T) {
		m := newTestMemory()
		for i := 0; i < 3; i++ {
			m.Fail("banned@example.com", at(0))
		}
		m.Fail("counting@example.com", at(0))

		assert.Equal(t, 0, m.Sweep(at(29999)))
		assert.Equal(t, 1, m.Sweep(at(30000)))
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, 1, m.attempts("counting@example.com"))
	})

	t.Run("removes idle counting records when enabled", func(t *testing.T) {
		m := NewMemory(Config{Threshold: 3, BanDuration: 30 * time.Second, IdleTTL: time.Minute})
		m.Fail("idle@example.com", at(0))
		m.Fail("fresh@example.com", at(50000))

		assert.Equal(t, 1, m.Sweep(at(60000)))
		assert.Equal(t, 0, m.attempts("idle@example.com"))
		assert.Equal(t, 1, m.attempts("fresh@example.com"))
	})
}

func TestMemory_ConcurrentFailuresReachThreshold(t *testing.T) {
	m := NewMemory(Config{Threshold: 50, BanDuration: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.RecordFailure(context.Background(), "user@example.com", at(0))
		}()
	}
	wg.Wait()

	d, err := m.CheckAdmission(context.Background(), "user@example.com", at(0))
	require.NoError(t, err)
	assert.True(t, d.Banned)
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, Allowed.RetryAfterSeconds())
	assert.Equal(t, 1, Decision{Banned: true, Remaining: time.Millisecond}.RetryAfterSeconds())
	assert.Equal(t, 2, Decision{Banned: true, Remaining: 2 * time.Second}.RetryAfterSeconds())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Threshold: 0, BanDuration: time.Second}.Validate())
	assert.Error(t, Config{Threshold: 3}.Validate())
	assert.Error(t, Config{Threshold: 3, BanDuration: time.Second, IdleTTL: -1}.Validate())
}
