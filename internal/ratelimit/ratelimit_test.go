package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_AllowWithinLimit(t *testing.T) {
	l := NewFixedWindow(3, 15*time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l := NewFixedWindow(1, 15*time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	l := NewFixedWindow(1, 15*time.Minute)

	current := time.Now()
	l.now = func() time.Time { return current }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	current = current.Add(15*time.Minute + time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestFixedWindow_SweepDropsExpiredEntries(t *testing.T) {
	l := NewFixedWindow(1, time.Minute)

	current := time.Now()
	l.now = func() time.Time { return current }

	l.Allow("a")
	l.Allow("b")
	assert.Len(t, l.entries, 2)

	current = current.Add(2 * time.Minute)
	l.Allow("c")
	// a and b rolled over and were swept on the next insert
	assert.Len(t, l.entries, 1)
}
