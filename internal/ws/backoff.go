package ws

import "time"

// DefaultReconnectDelay is the wait between a dropped socket and the next
// connection attempt when no policy is configured.
const DefaultReconnectDelay = 3 * time.Second

// ReconnectPolicy controls how Client.Run spaces out reconnect attempts.
// The zero value retries forever every DefaultReconnectDelay.
type ReconnectPolicy struct {
	Delay       time.Duration // first (or only) delay
	MaxDelay    time.Duration // cap when Multiplier > 1
	Multiplier  float64       // <= 1 means fixed delay
	MaxAttempts int           // consecutive failed attempts before Run gives up; 0 = never
}

// DefaultPolicy is a fixed 3s delay with unbounded retries.
func DefaultPolicy() ReconnectPolicy {
	return ReconnectPolicy{Delay: DefaultReconnectDelay, Multiplier: 1}
}

// Backoff builds the delay sequence for this policy.
func (p ReconnectPolicy) Backoff() *Backoff {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if p.Multiplier <= 1 {
		return &Backoff{initial: delay, max: delay, factor: 1}
	}
	max := p.MaxDelay
	if max < delay {
		max = delay
	}
	return &Backoff{initial: delay, max: max, factor: p.Multiplier}
}

// Backoff yields growing delays between initial and max.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	cur     time.Duration
}

// Next returns the delay before the next attempt.
func (b *Backoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.initial
	} else {
		b.cur = time.Duration(float64(b.cur) * b.factor)
	}
	if b.max > 0 && b.cur > b.max {
		b.cur = b.max
	}
	return b.cur
}

// Reset starts the sequence over, typically after a successful connection.
func (b *Backoff) Reset() {
	b.cur = 0
}
