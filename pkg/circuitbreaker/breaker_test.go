package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDependency = errors.New("dependency down")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		err := b.Execute(func() error { return errDependency })
		assert.ErrorIs(t, err, errDependency)
	}

	assert.Equal(t, StateOpen, b.State())

	err := b.Execute(func() error {
		t.Fatal("open breaker must not invoke the function")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Config{FailureThreshold: 2, OpenTimeout: time.Hour})

	require.Error(t, b.Execute(func() error { return errDependency }))
	require.NoError(t, b.Execute(func() error { return nil }))
	require.Error(t, b.Execute(func() error { return errDependency }))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, b.Execute(func() error { return errDependency }))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Config{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	require.Error(t, b.Execute(func() error { return errDependency }))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.Error(t, b.Execute(func() error { return errDependency }))
	assert.Equal(t, StateOpen, b.State())
}
