package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerCountsDownAndFormats(t *testing.T) {
	timer := NewTimer(125, DefaultWarningSeconds, nil)
	assert.Equal(t, "02:05", timer.Display())

	timer.tick()
	assert.Equal(t, 124, timer.Remaining())
	assert.Equal(t, "02:04", timer.Display())
}

func TestTimerExpiresAtMostOnce(t *testing.T) {
	fired := 0
	timer := NewTimer(2, DefaultWarningSeconds, func() { fired++ })

	// Tick well past zero, simulating re-renders continuing to drive ticks.
	for i := 0; i < 10; i++ {
		timer.tick()
	}

	assert.Equal(t, 1, fired)
	assert.True(t, timer.Expired())
	assert.Equal(t, 0, timer.Remaining())
}

func TestUntimedTimerNeverExpires(t *testing.T) {
	fired := 0
	timer := NewTimer(0, DefaultWarningSeconds, func() { fired++ })

	// Simulate an arbitrarily long elapsed time.
	for i := 0; i < 100000; i++ {
		timer.tick()
	}

	assert.Equal(t, 0, fired)
	assert.False(t, timer.Expired())
	assert.Equal(t, "--:--", timer.Display())
	assert.False(t, timer.Warning())
}

func TestTimerWarningThreshold(t *testing.T) {
	timer := NewTimer(302, 300, nil)
	assert.False(t, timer.Warning())

	timer.tick()
	timer.tick()
	assert.Equal(t, 300, timer.Remaining())
	assert.True(t, timer.Warning())
}

func TestExpiredTimerNeverTicks(t *testing.T) {
	timer := NewExpiredTimer(DefaultWarningSeconds)

	assert.True(t, timer.Expired())
	assert.False(t, timer.Untimed())
	assert.Equal(t, "00:00", timer.Display())

	timer.Arm()
	assert.True(t, timer.tick())
	assert.Equal(t, 0, timer.Remaining())
}

func TestTimerWarningFiresOnce(t *testing.T) {
	warned := 0
	timer := NewTimer(303, 300, nil)
	timer.OnWarning(func() { warned++ })

	for i := 0; i < 10; i++ {
		timer.tick()
	}

	assert.Equal(t, 1, warned)
}

func TestTimerCancelSuppressesLateExpiry(t *testing.T) {
	fired := 0
	timer := NewTimer(1, DefaultWarningSeconds, func() { fired++ })

	timer.Cancel()
	for i := 0; i < 5; i++ {
		timer.tick()
	}

	assert.Equal(t, 0, fired)
	assert.False(t, timer.Expired())
}

func TestTimerArmAfterCancelIsNoop(t *testing.T) {
	timer := NewTimer(5, DefaultWarningSeconds, nil)
	timer.Cancel()
	assert.NotPanics(t, timer.Arm)
}
