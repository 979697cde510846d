// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package weave_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/weave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStreamInvalidCapacity(t *testing.T) {
	_, err := weave.NewStreamConsumer[int](0)
	require.ErrorIs(t, err, weave.ErrInvalidCapacity)

	_, err = weave.NewStreamConsumer[int](-3)
	require.ErrorIs(t, err, weave.ErrInvalidCapacity)

	c, err := weave.NewStreamConsumer[int](1)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestStreamPushPop(t *testing.T) {
	defer goleak.VerifyNone(t)

	cons, err := weave.NewStreamConsumer[int](8)
	require.NoError(t, err)
	prod := weave.NewStreamProducer[int]()

	// Unconnected push goes nowhere.
	prod.Push(99)
	assert.True(t, cons.Empty())

	weave.ConnectStream(prod, cons)

	for i := range 5 {
		prod.Push(i)
	}
	assert.False(t, cons.Empty())

	for i := range 5 {
		v, err := cons.Pop()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, cons.Empty())

	_, err = cons.Pop()
	assert.ErrorIs(t, err, weave.ErrWouldBlock)

	weave.DisconnectStream(prod, cons)
	prod.Close()
	require.NoError(t, cons.Close())
}

func TestStreamBulk(t *testing.T) {
	cons, err := weave.NewStreamConsumer[int](8)
	require.NoError(t, err)
	prod := weave.NewStreamProducer[int]()
	weave.ConnectStream(prod, cons)

	prod.PushBulk([]int{1, 2, 3, 4})

	out := make([]int, 4)
	require.NoError(t, cons.PopBulk(out))
	assert.Equal(t, []int{1, 2, 3, 4}, out)

	// A bulk pop larger than what is queued fails without effect.
	prod.Push(5)
	assert.ErrorIs(t, cons.PopBulk(make([]int, 2)), weave.ErrWouldBlock)
	v, err := cons.Pop()
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	prod.Close()
	require.NoError(t, cons.Close())
}

// TestStreamFanOut checks one producer feeds every connected consumer.
func TestStreamFanOut(t *testing.T) {
	prod := weave.NewStreamProducer[int]()
	c1, err := weave.NewStreamConsumer[int](8)
	require.NoError(t, err)
	c2, err := weave.NewStreamConsumer[int](8)
	require.NoError(t, err)

	weave.ConnectStream(prod, c1)
	weave.ConnectStream(prod, c2)

	prod.Push(11)

	v1, err := c1.Pop()
	require.NoError(t, err)
	v2, err := c2.Pop()
	require.NoError(t, err)
	assert.Equal(t, 11, v1)
	assert.Equal(t, 11, v2)

	prod.Close()
	require.NoError(t, c1.Close())
	require.NoError(t, c2.Close())
}

// TestStreamReceiveEvent waits on the consumer's receive event for data
// pushed from another goroutine.
func TestStreamReceiveEvent(t *testing.T) {
	defer goleak.VerifyNone(t)

	cons, err := weave.NewStreamConsumer[int](8)
	require.NoError(t, err)
	prod := weave.NewStreamProducer[int]()
	weave.ConnectStream(prod, cons)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		prod.Push(21)
	}()

	require.NoError(t, weave.Wait(cons.ReceiveEvent()))
	v, err := cons.Pop()
	require.NoError(t, err)
	assert.Equal(t, 21, v)

	wg.Wait()
	prod.Close()
	require.NoError(t, cons.Close())
}

// TestStreamManyProducers drives one consumer from several producer
// endpoints on their own goroutines.
func TestStreamManyProducers(t *testing.T) {
	if weave.RaceEnabled {
		t.Skip("skip: synchronizes through atomic orderings the race detector cannot track")
	}

	const (
		producers    = 3
		itemsPerProd = 1000
	)

	cons, err := weave.NewStreamConsumer[int](64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var done atomix.Int64
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer done.AddAcqRel(1)
			prod := weave.NewStreamProducer[int]()
			weave.ConnectStream(prod, cons)
			defer prod.Close()

			for i := range itemsPerProd {
				prod.Push(id*itemsPerProd + i)
			}
		}(p)
	}

	// Push drops values when the consumer's queue is full, so the total
	// received is at most producers*itemsPerProd; a continuously
	// draining consumer must still observe plenty.
	received := 0
	backoff := iox.Backoff{}
	for done.Load() < producers {
		if _, err := cons.Pop(); err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		received++
	}
	for {
		if _, err := cons.Pop(); err != nil {
			break
		}
		received++
	}
	wg.Wait()

	assert.Positive(t, received)
	assert.LessOrEqual(t, received, producers*itemsPerProd)

	require.NoError(t, cons.Close())
}
