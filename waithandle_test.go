package depgraph

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitHandle_SignaledFastPath(t *testing.T) {
	var mu sync.Mutex
	state := ObjectBuilt
	wh := newWaitHandle(&mu, func() State { return state }, builtMask)

	assert.True(t, wh.signaled())
	wh.Wait() // must return immediately, no deadlock
}

func TestWaitHandle_WaitBlocksUntilBroadcast(t *testing.T) {
	var mu sync.Mutex
	state := Starting
	wh := newWaitHandle(&mu, func() State { return state }, builtMask)

	done := make(chan struct{})
	go func() {
		wh.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before state reached the acceptance mask")
	case <-time.After(20 * time.Millisecond):
	}

	mu.Lock()
	state = ObjectBuilt
	wh.broadcast()
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after broadcast")
	}
}

func TestWaitHandle_WaitForTimesOut(t *testing.T) {
	var mu sync.Mutex
	state := Starting
	wh := newWaitHandle(&mu, func() State { return state }, builtMask)

	reached := wh.WaitFor(10 * time.Millisecond)
	assert.False(t, reached)
}

func TestWaitHandle_WaitForReturnsTrueWhenSignaledBeforeDeadline(t *testing.T) {
	var mu sync.Mutex
	state := Starting
	wh := newWaitHandle(&mu, func() State { return state }, builtMask)

	go func() {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		state = Failure
		wh.broadcast()
		mu.Unlock()
	}()

	reached := wh.WaitFor(time.Second)
	assert.True(t, reached)
}

func TestWaitHandle_WaitUntilPastDeadlineReturnsFalseImmediately(t *testing.T) {
	var mu sync.Mutex
	state := Starting
	wh := newWaitHandle(&mu, func() State { return state }, builtMask)

	start := time.Now()
	reached := wh.WaitUntil(time.Now().Add(-time.Second))
	require.False(t, reached)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
