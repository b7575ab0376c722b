package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryKeepsMostRecentTwenty(t *testing.T) {
	s := newSession(1)
	for i := 1; i <= 25; i++ {
		s.Remember(i)
	}

	got := s.History()
	require.Len(t, got, HistoryLimit)
	assert.Equal(t, 6, got[0], "earliest five ids must be evicted")
	assert.Equal(t, 25, got[len(got)-1])
}

func TestDrainHistoryAlwaysEmpties(t *testing.T) {
	s := newSession(1)
	s.Remember(10)
	s.Remember(11)

	drained := s.DrainHistory()
	assert.Equal(t, []int{10, 11}, drained)
	assert.Empty(t, s.History())

	// draining an empty buffer is fine
	assert.Empty(t, s.DrainHistory())
}

func TestStoreCreatesSessionImplicitly(t *testing.T) {
	st := NewStore()

	s, created := st.Get(42)
	require.True(t, created)
	assert.Equal(t, int64(42), s.ChatID)
	assert.Equal(t, StateIdle, s.State)

	again, created := st.Get(42)
	assert.False(t, created)
	assert.Same(t, s, again)
}

func TestResetClearsEverything(t *testing.T) {
	s := newSession(7)
	s.State = StateAwaitingPDF
	s.ActiveDealID = 12
	s.Scratch[KeyNewClientPhone] = "+77771234567"
	s.Remember(99)

	s.Reset()

	assert.Equal(t, StateIdle, s.State)
	assert.Zero(t, s.ActiveDealID)
	assert.Empty(t, s.Scratch)
	assert.Empty(t, s.History())
}
