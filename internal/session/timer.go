package session

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWarningSeconds recolors the countdown once remaining time drops
// under this threshold.
const DefaultWarningSeconds = 300

// Timer is a countdown decoupled from any particular attempt. It ticks once
// per second while armed, fires its expiry callback at most once, and never
// expires when constructed untimed (duration 0).
type Timer struct {
	mu        sync.Mutex
	remaining int
	warnAt    int
	untimed   bool
	armed     bool
	expired   bool
	canceled  bool
	warned    bool
	onExpire  func()
	onWarn    func()
	stop      chan struct{}
}

// NewTimer builds a timer for durationSeconds with a warning threshold of
// warningSeconds. A duration of 0 (or less) means untimed: the expiry
// callback is not attached at all, so it can never fire.
func NewTimer(durationSeconds, warningSeconds int, onExpire func()) *Timer {
	t := &Timer{
		remaining: durationSeconds,
		warnAt:    warningSeconds,
		untimed:   durationSeconds <= 0,
		stop:      make(chan struct{}),
	}
	if !t.untimed {
		t.onExpire = onExpire
	}
	return t
}

// NewExpiredTimer builds a timed countdown that already ran out, for resuming
// an attempt past its deadline. Arm is a no-op and Display reads 00:00; what
// expiry means is the caller's to decide.
func NewExpiredTimer(warningSeconds int) *Timer {
	return &Timer{
		warnAt:  warningSeconds,
		expired: true,
		stop:    make(chan struct{}),
	}
}

// OnWarning attaches a callback fired once, when the countdown first crosses
// the warning threshold. No-op on untimed timers.
func (t *Timer) OnWarning(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.untimed {
		t.onWarn = fn
	}
}

// Arm starts the countdown. It does nothing for an untimed timer and is a
// no-op when already armed, so re-arming on a re-render cannot double the
// tick rate.
func (t *Timer) Arm() {
	t.mu.Lock()
	if t.untimed || t.armed || t.canceled || t.expired {
		t.mu.Unlock()
		return
	}
	t.armed = true
	t.mu.Unlock()

	go t.run()
}

func (t *Timer) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if done := t.tick(); done {
				return
			}
		}
	}
}

// tick advances the countdown by one second and fires the expiry callback
// exactly once when the count reaches zero. It reports whether the timer is
// finished.
func (t *Timer) tick() bool {
	t.mu.Lock()
	if t.untimed || t.canceled || t.expired {
		t.mu.Unlock()
		return true
	}
	if t.remaining > 0 {
		t.remaining--
	}

	var fire, warn func()
	done := false
	if !t.warned && t.remaining > 0 && t.remaining <= t.warnAt {
		t.warned = true
		warn = t.onWarn
	}
	if t.remaining == 0 {
		t.expired = true
		fire = t.onExpire
		done = true
	}
	t.mu.Unlock()

	if warn != nil {
		warn()
	}
	if fire != nil {
		fire()
	}
	return done
}

// Cancel stops future ticks and suppresses a late expiry, for the case where
// the attempt was already submitted through another path.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	armed := t.armed
	t.mu.Unlock()

	if armed {
		close(t.stop)
	}
}

// Remaining returns the remaining whole seconds; 0 for an expired timer and
// for untimed timers constructed with duration 0.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Untimed reports whether this timer can ever expire.
func (t *Timer) Untimed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.untimed
}

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Warning is true once remaining time drops under the warning threshold on a
// timed countdown.
func (t *Timer) Warning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.untimed && !t.expired && t.remaining <= t.warnAt
}

// Display renders the remaining time as mm:ss. Untimed timers render as
// "--:--".
func (t *Timer) Display() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.untimed {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", t.remaining/60, t.remaining%60)
}
