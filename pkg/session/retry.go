package session

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy computes the delay before the next login attempt. The delay
// doubles per consecutive failure from Initial up to Max, with up to 20%
// jitter so a fleet of accounts does not hammer the platform in lockstep.
// There is no attempt cap: the caller retries until its context ends.
type RetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := p.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			d = p.Max
			break
		}
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}

	if jitter := d / 5; jitter > 0 {
		d = d - jitter/2 + rand.N(jitter)
	}
	return d
}
