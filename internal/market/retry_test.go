package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrierSucceedsFirstTry(t *testing.T) {
	r := Retrier{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := r.Do(context.Background(), "test", func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierRecoversAfterFailures(t *testing.T) {
	r := Retrier{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := r.Do(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrierReturnsLastError(t *testing.T) {
	r := Retrier{Attempts: 2, Delay: time.Millisecond}

	boom := errors.New("boom")
	calls := 0
	err := r.Do(context.Background(), "test", func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.Equal(t, 2, calls)
}

func TestRetrierContextCancelled(t *testing.T) {
	r := Retrier{Attempts: 5, Delay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, "test", func() error {
		calls++
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "отмена прерывает паузу, новых попыток нет")
}

func TestRetrierAtLeastOneAttempt(t *testing.T) {
	r := Retrier{Attempts: 0, Delay: 0}

	calls := 0
	_ = r.Do(context.Background(), "test", func() error {
		calls++
		return nil
	})
	assert.Equal(t, 1, calls)
}
