package solve

import (
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base    time.Duration
	attempt int64
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return l.base * time.Duration(l.attempt)
}

func (l *linearBackOff) Reset() {
	l.attempt = 0
}

var _ backoff.BackOff = (*linearBackOff)(nil)
