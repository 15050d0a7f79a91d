package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffUnknownProviderNoWait(t *testing.T) {
	b := NewProviderBackoff(time.Millisecond, 10*time.Millisecond)

	start := time.Now()
	b.Wait("places")
	assert.Less(t, time.Since(start), 5*time.Millisecond)
}

func TestBackoffGrowsAndRecovers(t *testing.T) {
	b := NewProviderBackoff(time.Millisecond, 100*time.Millisecond)

	b.RecordFailure("places")
	b.RecordFailure("places")
	state := b.providers["places"]
	assert.Equal(t, 2, state.failureCount)
	assert.True(t, state.nextAllowed.After(time.Now().Add(-time.Second)))

	b.RecordSuccess("places")
	b.RecordSuccess("places")
	assert.Equal(t, 0, state.failureCount)
	assert.True(t, state.nextAllowed.IsZero(), "full recovery clears the gate")
}

func TestDelayForCapped(t *testing.T) {
	b := NewProviderBackoff(time.Millisecond, 8*time.Millisecond)

	// 2^19 ms would be minutes; the cap plus 10% jitter bounds it.
	d := b.delayFor(20)
	assert.LessOrEqual(t, d, 8*time.Millisecond+time.Millisecond)
	assert.GreaterOrEqual(t, d, 8*time.Millisecond)
}

func TestDelayForExponential(t *testing.T) {
	b := NewProviderBackoff(time.Millisecond, time.Minute)

	// base 1ms: failure 1 is 1ms, failure 3 is 4ms, each plus up to 10% jitter.
	d1 := b.delayFor(1)
	assert.GreaterOrEqual(t, d1, time.Millisecond)
	assert.Less(t, d1, 2*time.Millisecond)

	d3 := b.delayFor(3)
	assert.GreaterOrEqual(t, d3, 4*time.Millisecond)
	assert.Less(t, d3, 5*time.Millisecond)
}
