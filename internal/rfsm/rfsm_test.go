// file: internal/rfsm/rfsm_test.go
package rfsm_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/jsonrpcx/internal/rfsm"
)

func TestStartsRunning(t *testing.T) {
	r := rfsm.New(nil, nil)
	assert.False(t, r.IsStopped())
}

func TestStreamEndedStopsAndFiresCallback(t *testing.T) {
	var calls int32
	r := rfsm.New(nil, func() { atomic.AddInt32(&calls, 1) })

	r.NotifyStreamEnded(context.Background())
	assert.True(t, r.IsStopped())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStreamEndedAfterStoppedIsNoop(t *testing.T) {
	var calls int32
	r := rfsm.New(nil, func() { atomic.AddInt32(&calls, 1) })

	r.NotifyStreamEnded(context.Background())
	r.NotifyStreamEnded(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "callback must fire exactly once")
}

func TestCloseIsIdempotentAndCallbackFiresOnce(t *testing.T) {
	var calls int32
	r := rfsm.New(nil, func() { atomic.AddInt32(&calls, 1) })

	r.Close(context.Background())
	r.Close(context.Background())
	r.Close(context.Background())

	assert.True(t, r.IsStopped())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCloseAfterStreamEndedStaysStoppedAndDoesNotRefire(t *testing.T) {
	var calls int32
	r := rfsm.New(nil, func() { atomic.AddInt32(&calls, 1) })

	r.NotifyStreamEnded(context.Background())
	r.Close(context.Background())

	assert.True(t, r.IsStopped())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
