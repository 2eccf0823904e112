package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) ExpirePastSlots(context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	expirer := &countingExpirer{}
	s := NewScheduler(expirer, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	stopped := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, expirer.calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("db down")}
	s := NewScheduler(expirer, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	s.done.Wait()
}

func TestInitTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "test", "", zap.NewNop())
	assert.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
