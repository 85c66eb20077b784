package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wealthgate/pkg/domain-errors"
)

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	_, err := ParseOperation("upload")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownOperation))
}

func TestNewDecision(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	policy := Policy{Operation: OperationLogin, Window: time.Minute, MaxRequests: 5}

	t.Run("within limit", func(t *testing.T) {
		d := NewDecision(policy, WindowCount{Count: 2, ResetAt: now.Add(time.Minute)}, now)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Remaining)
		assert.Equal(t, 5, d.Limit)
		assert.Zero(t, d.RetryAfter)
	})

	t.Run("at limit is still allowed", func(t *testing.T) {
		d := NewDecision(policy, WindowCount{Count: 5, ResetAt: now.Add(time.Minute)}, now)
		assert.True(t, d.Allowed)
		assert.Zero(t, d.Remaining)
	})

	t.Run("over limit is denied with rounded-up retry", func(t *testing.T) {
		reset := now.Add(50*time.Second + 1*time.Millisecond)
		d := NewDecision(policy, WindowCount{Count: 6, ResetAt: reset}, now)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.Equal(t, 51, d.RetryAfter)
		assert.Equal(t, reset.UnixMilli(), d.ResetAtEpochMillis())
	})
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.UnixMilli(10_000)
	assert.Equal(t, 0, RetryAfterSeconds(now.Add(-time.Second), now))
	assert.Equal(t, 1, RetryAfterSeconds(now.Add(time.Millisecond), now))
	assert.Equal(t, 60, RetryAfterSeconds(now.Add(time.Minute), now))
}

func TestCounterKey(t *testing.T) {
	login := Policy{Operation: OperationLogin}
	assert.Equal(t, "login:1.2.3.4", CounterKey(login, "1.2.3.4"))
	assert.Equal(t, "login:2001_cdb8___c1", CounterKey(login, "2001:db8_:1"))

	t.Run("delimiters cannot collide", func(t *testing.T) {
		a := CounterKey(login, "x:search")
		b := CounterKey(login, "x_csearch")
		assert.NotEqual(t, a, b)
	})

	t.Run("explicit prefix wins", func(t *testing.T) {
		p := Policy{Operation: OperationExport, KeyPrefix: "rl:export"}
		assert.Equal(t, "rl:export:abc", CounterKey(p, "abc"))
	})
}
