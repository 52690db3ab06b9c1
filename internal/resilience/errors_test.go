package resilience

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, ClassifyStatus(200))

	for _, code := range []int{403, 404, 410} {
		assert.Equal(t, OutcomePermanent, ClassifyStatus(code), "status %d", code)
	}

	for _, code := range []int{429, 500, 502, 503, 504, 301} {
		assert.Equal(t, OutcomeTransient, ClassifyStatus(code), "status %d", code)
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.False(t, IsTransient(errors.New("invalid payload")))
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := range 4 {
		d := Backoff(attempt)
		min := time.Duration(1<<attempt) * time.Second
		assert.GreaterOrEqual(t, d, min, "attempt %d", attempt)
		assert.Less(t, d, min+time.Second, "attempt %d", attempt)
	}
}
