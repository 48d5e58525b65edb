package throttle

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultThreshold   = 3
	DefaultBanDuration = 30 * time.Second
)

// Config holds the login throttle policy
type Config struct {
	Threshold   int           // Consecutive failures that trigger a ban
	BanDuration time.Duration // How long a ban lasts
	IdleTTL     time.Duration // Sweep counting records idle this long (0 = never)
}

// DefaultConfig returns the reference policy: 3 failures, 30 second ban
func DefaultConfig() Config {
	return Config{
		Threshold:   DefaultThreshold,
		BanDuration: DefaultBanDuration,
	}
}

// Validate checks that the policy is usable
func (c Config) Validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("throttle threshold must be at least 1 (got %d)", c.Threshold)
	}
	if c.BanDuration <= 0 {
		return fmt.Errorf("throttle ban duration must be positive (got %s)", c.BanDuration)
	}
	if c.IdleTTL < 0 {
		return fmt.Errorf("throttle idle TTL cannot be negative (got %s)", c.IdleTTL)
	}
	return nil
}

// Decision is the outcome of an admission check
type Decision struct {
	Banned    bool
	Remaining time.Duration // Time left on the ban; zero when not banned
}

// Allowed is the decision for identifiers that may proceed to credential checks
var Allowed = Decision{}

// RetryAfterSeconds reports the remaining ban time in whole seconds, rounded up
func (d Decision) RetryAfterSeconds() int {
	if !d.Banned || d.Remaining <= 0 {
		return 0
	}
	return int((d.Remaining + time.Second - 1) / time.Second)
}

// Throttle tracks failed logins per account identifier and bans after a threshold.
//
// CheckAdmission is read-only. RecordFailure must only be called after credentials
// were confirmed wrong, never for infrastructure errors. RecordSuccess clears the
// identifier unconditionally.
type Throttle interface {
	CheckAdmission(ctx context.Context, identifier string, now time.Time) (Decision, error)
	RecordFailure(ctx context.Context, identifier string, now time.Time) error
	RecordSuccess(ctx context.Context, identifier string) error
}
