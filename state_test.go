// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package weave_test

import (
	"testing"

	"code.hybscloud.com/weave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreLoad(t *testing.T) {
	state := weave.NewState[int]()
	obs, err := weave.NewStateObserver[int]()
	require.NoError(t, err)

	// Unconnected observer reads the zero value.
	assert.Equal(t, 0, obs.Load())

	obs.Connect(state)
	state.Store(42)

	assert.Equal(t, 42, obs.Load())

	// The changed event is active after a store.
	require.NoError(t, weave.Wait(obs.Changed()))

	state.Store(43)
	assert.Equal(t, 43, obs.Load())

	require.NoError(t, obs.Close())
	state.Close()
}

func TestStateInitialValue(t *testing.T) {
	state := weave.NewStateValue(5)
	obs, err := weave.NewStateObserver[int]()
	require.NoError(t, err)

	obs.Connect(state)
	assert.Equal(t, 5, obs.Load())

	require.NoError(t, obs.Close())
	state.Close()
}

func TestStateStagedPublish(t *testing.T) {
	state := weave.NewState[[2]int]()
	obs, err := weave.NewStateObserver[[2]int]()
	require.NoError(t, err)
	obs.Connect(state)

	state.Value()[0] = 1
	state.Value()[1] = 2
	state.Publish()

	assert.Equal(t, [2]int{1, 2}, obs.Load())

	require.NoError(t, obs.Close())
	state.Close()
}

func TestStateManyObservers(t *testing.T) {
	state := weave.NewState[int]()

	var observers []*weave.StateObserver[int]
	for range 3 {
		obs, err := weave.NewStateObserver[int]()
		require.NoError(t, err)
		obs.Connect(state)
		observers = append(observers, obs)
	}

	state.Store(9)

	for i, obs := range observers {
		assert.Equal(t, 9, obs.Load(), "observer %d", i)
		require.NoError(t, weave.Wait(obs.Changed()), "observer %d", i)
	}

	for _, obs := range observers {
		require.NoError(t, obs.Close())
	}
	state.Close()
}

func TestStateObserverReconnect(t *testing.T) {
	s1 := weave.NewStateValue(1)
	s2 := weave.NewStateValue(2)

	obs, err := weave.NewStateObserver[int]()
	require.NoError(t, err)

	obs.Connect(s1)
	assert.Equal(t, 1, obs.Load())

	// Connecting elsewhere detaches from the first state.
	obs.Connect(s2)
	assert.Equal(t, 2, obs.Load())

	s1.Store(10)
	assert.Equal(t, 2, obs.Load())

	obs.Disconnect()
	assert.Equal(t, 0, obs.Load())

	require.NoError(t, obs.Close())
	s1.Close()
	s2.Close()
}
