package timer

import "time"

// oneShotTimer wraps stdlib time.AfterFunc; stop is nil-safe. Repeated
// StartTimer/StopTimer calls stay idempotent through the owning
// entry's running flag, not through any state kept here.
type oneShotTimer struct {
	t *time.Timer
}

func newOneShotTimer(delayMs int64, fire func()) *oneShotTimer {
	return &oneShotTimer{t: time.AfterFunc(time.Duration(delayMs)*time.Millisecond, fire)}
}

func (o *oneShotTimer) stop() {
	if o.t != nil {
		o.t.Stop()
	}
}
