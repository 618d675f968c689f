package signal_test

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsignal-go/tsignal/loop"
	"github.com/tsignal-go/tsignal/signal"
)

type counter struct {
	lp *loop.Loop
	n  atomic.Int32
}

func (c *counter) ExecutionContext() *loop.Context { return c.lp.Context() }

func (c *counter) onTick(v int) { c.n.Add(int32(v)) }

func newRunningCounter(t *testing.T) (*counter, context.Context) {
	t.Helper()
	c := &counter{lp: loop.New(8)}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.lp.Run(ctx) }()
	return c, ctx
}

func TestSignal_ConnectFuncDirectDelivery(t *testing.T) {
	sig := signal.New[int]()
	var got int
	_, err := sig.ConnectFunc(func(v int) { got = v })
	require.NoError(t, err)

	sig.Emit(context.Background(), 7)

	assert.Equal(t, 7, got)
	assert.EqualValues(t, 1, sig.Stats().Delivered)
}

func TestSignal_ConnectNilHandlerFails(t *testing.T) {
	sig := signal.New[int]()
	_, err := sig.ConnectFunc(nil)
	assert.ErrorIs(t, err, signal.ErrNotCallable)
}

func TestSignal_ConnectNilReceiverFails(t *testing.T) {
	sig := signal.New[int]()
	_, err := signal.Connect[int, counter](sig, nil, func(*counter, int) {})
	assert.ErrorIs(t, err, signal.ErrInvalidReceiver)
}

func TestSignal_BoundHandlerQueuedToReceiverLoop(t *testing.T) {
	c, ctx := newRunningCounter(t)
	sig := signal.New[int]()

	_, err := signal.Connect(sig, c, (*counter).onTick)
	require.NoError(t, err)

	// Emitting from outside c's loop under ModeAuto must queue, not call inline.
	sig.Emit(context.Background(), 5)
	assert.EqualValues(t, 0, c.n.Load(), "queued delivery must not run synchronously")

	require.Eventually(t, func() bool { return c.n.Load() == 5 }, time.Second, time.Millisecond)
	_ = ctx
}

func TestSignal_ModeDirectForcesInlineDelivery(t *testing.T) {
	c, _ := newRunningCounter(t)
	sig := signal.New[int]()

	_, err := signal.Connect(sig, c, (*counter).onTick, signal.WithMode(signal.ModeDirect))
	require.NoError(t, err)

	sig.Emit(context.Background(), 3)
	assert.EqualValues(t, 3, c.n.Load())
}

func TestSignal_AutoModeIsDirectOnOwnLoop(t *testing.T) {
	c, _ := newRunningCounter(t)
	sig := signal.New[int]()
	_, err := signal.Connect(sig, c, (*counter).onTick)
	require.NoError(t, err)

	done := make(chan struct{})
	require.True(t, c.lp.Context().Post(func(runCtx context.Context) {
		sig.Emit(runCtx, 2)
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	assert.EqualValues(t, 2, c.n.Load(), "same-loop emit under ModeAuto must deliver inline before Post's closure returns")
}

func TestSignal_OneShotDisconnectsAfterFirstDispatch(t *testing.T) {
	sig := signal.New[int]()
	var calls int
	_, err := sig.ConnectFunc(func(int) { calls++ }, signal.WithOneShot())
	require.NoError(t, err)

	sig.Emit(context.Background(), 1)
	sig.Emit(context.Background(), 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, sig.Stats().Connections)
}

func TestSignal_SnapshotSemanticsDuringEmit(t *testing.T) {
	sig := signal.New[int]()
	var order []int
	var mu sync.Mutex

	_, err := sig.ConnectFunc(func(v int) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
		// Connecting mid-emit must not affect the emit already in flight.
		_, _ = sig.ConnectFunc(func(int) {
			mu.Lock()
			order = append(order, -1)
			mu.Unlock()
		})
	})
	require.NoError(t, err)

	sig.Emit(context.Background(), 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1}, order, "handler added during emit must not receive that same emit")
}

func TestSignal_DisconnectRemovesConnection(t *testing.T) {
	sig := signal.New[int]()
	var calls int
	conn, err := sig.ConnectFunc(func(int) { calls++ })
	require.NoError(t, err)

	conn.Disconnect()
	sig.Emit(context.Background(), 1)

	assert.Equal(t, 0, calls)
}

func TestSignal_DisconnectReceiverRemovesAllItsConnections(t *testing.T) {
	c, _ := newRunningCounter(t)
	sig := signal.New[int]()

	_, err := signal.Connect(sig, c, (*counter).onTick, signal.WithMode(signal.ModeDirect))
	require.NoError(t, err)
	_, err = signal.Connect(sig, c, (*counter).onTick, signal.WithMode(signal.ModeDirect))
	require.NoError(t, err)

	removed := sig.DisconnectReceiver(c)
	assert.Equal(t, 2, removed)

	sig.Emit(context.Background(), 9)
	assert.EqualValues(t, 0, c.n.Load())
}

func TestSignal_HandlerPanicIsRecoveredAndCounted(t *testing.T) {
	sig := signal.New[int]()
	_, err := sig.ConnectFunc(func(int) { panic("boom") })
	require.NoError(t, err)

	assert.NotPanics(t, func() { sig.Emit(context.Background(), 1) })
	assert.EqualValues(t, 1, sig.Stats().Failed)
}

func TestSignal_WeakReceiverDropsAfterCollection(t *testing.T) {
	sig := signal.New[int]()

	func() {
		c := &counter{lp: loop.New(1)}
		_, err := signal.Connect(sig, c, (*counter).onTick, signal.WithWeak(), signal.WithMode(signal.ModeDirect))
		require.NoError(t, err)
		runtime.KeepAlive(c)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		sig.Emit(context.Background(), 1)
		return sig.Stats().Connections == 0
	}, 2*time.Second, 10*time.Millisecond, "weak connection must be dropped once its receiver is collected")
}

func TestSignal_DisconnectDoesNotCancelAlreadyPostedDelivery(t *testing.T) {
	c, _ := newRunningCounter(t)
	sig := signal.New[int]()

	conn, err := signal.Connect(sig, c, (*counter).onTick)
	require.NoError(t, err)

	sig.Emit(context.Background(), 5)
	conn.Disconnect()

	require.Eventually(t, func() bool { return c.n.Load() == 5 }, time.Second, time.Millisecond,
		"a delivery already posted before Disconnect must still run")

	sig.Emit(context.Background(), 5)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 5, c.n.Load(), "a second emit after Disconnect must deliver nothing")
}

func TestSignal_HandlerExceptionIsolatesFromSiblings(t *testing.T) {
	sig := signal.New[int]()
	var mu sync.Mutex
	var ran []string

	record := func(name string) {
		mu.Lock()
		ran = append(ran, name)
		mu.Unlock()
	}

	_, err := sig.ConnectFunc(func(int) { record("h1") })
	require.NoError(t, err)
	_, err = sig.ConnectFunc(func(int) { panic("h2 boom") })
	require.NoError(t, err)
	_, err = sig.ConnectFunc(func(int) { record("h3") })
	require.NoError(t, err)

	sig.Emit(context.Background(), 1)

	mu.Lock()
	assert.Equal(t, []string{"h1", "h3"}, ran, "h1 and h3 must both run despite h2 panicking")
	mu.Unlock()
	assert.EqualValues(t, 1, sig.Stats().Failed)

	ran = nil
	sig.Emit(context.Background(), 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"h1", "h3"}, ran, "signal must remain usable for a second emit")
}

func TestSignal_AsyncHandlerAlwaysQueued(t *testing.T) {
	c, _ := newRunningCounter(t)
	sig := signal.New[int]()

	_, err := signal.ConnectAsync(sig, c, func(_ context.Context, r *counter, v int) error {
		r.onTick(v)
		return nil
	}, signal.WithMode(signal.ModeDirect)) // explicit direct must still be overridden to queued
	require.NoError(t, err)

	sig.Emit(context.Background(), 4)
	assert.EqualValues(t, 0, c.n.Load(), "async handlers must never run inline regardless of requested mode")

	require.Eventually(t, func() bool { return c.n.Load() == 4 }, time.Second, time.Millisecond)
}
