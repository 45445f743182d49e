package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/clip-review-bot/internal/payment"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    WizardState
		ev      WizardEvent
		want    WizardState
		wantErr bool
	}{
		{StateAwaitingMethod, EventChooseSite, StateDone, false},
		{StateAwaitingMethod, EventChooseCard, StateAwaitingCardDigits, false},
		{StateAwaitingMethod, EventChooseUSDT, StateAwaitingUsdtAddress, false},
		{StateAwaitingCardDigits, EventDetailsAccepted, StateDone, false},
		{StateAwaitingUsdtAddress, EventDetailsAccepted, StateDone, false},
		{StateDone, EventRestart, StateAwaitingMethod, false},
		{StateAwaitingMethod, EventDetailsAccepted, StateAwaitingMethod, true},
		{StateDone, EventChooseCard, StateDone, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateManagerCardFlow(t *testing.T) {
	sm := NewStateManager()

	s := sm.Begin(1)
	assert.Equal(t, StateAwaitingMethod, s.State)

	s, err := sm.Choose(1, payment.MethodCard)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCardDigits, s.State)
	assert.True(t, s.AwaitingDetails())

	s, err = sm.Fire(1, EventDetailsAccepted)
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State)
	assert.Equal(t, payment.MethodCard, s.Method)

	sm.Clear(1)
	_, ok := sm.Get(1)
	assert.False(t, ok)
}

func TestStateManagerChooseAgainRestarts(t *testing.T) {
	sm := NewStateManager()
	sm.Begin(1)

	_, err := sm.Choose(1, payment.MethodCard)
	require.NoError(t, err)

	s, err := sm.Choose(1, payment.MethodUSDT)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingUsdtAddress, s.State)
	assert.Equal(t, payment.MethodUSDT, s.Method)
}

func TestStateManagerFireWithoutSession(t *testing.T) {
	sm := NewStateManager()
	_, err := sm.Fire(5, EventDetailsAccepted)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStateManagerSessionsArePerChat(t *testing.T) {
	sm := NewStateManager()
	sm.Begin(1)
	_, err := sm.Choose(2, payment.MethodSite)
	require.NoError(t, err)

	s1, ok := sm.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingMethod, s1.State)

	s2, ok := sm.Get(2)
	require.True(t, ok)
	assert.Equal(t, StateDone, s2.State)
}
