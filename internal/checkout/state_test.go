package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	s := StatusIdle

	s, err := Transition(s, EventResolve{Amount: 299})
	require.NoError(t, err)
	assert.Equal(t, StatusAmountResolved, s)

	s, err = Transition(s, EventOpen{})
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentOpened, s)

	s, err = Transition(s, EventSucceed{PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, s)
	assert.True(t, s.Terminal())
}

func TestTransition_FailureAndCancel(t *testing.T) {
	opened := StatusPaymentOpened

	s, err := Transition(opened, EventFail{Code: 0, Message: "declined"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s)

	s, err = Transition(opened, EventFail{Code: 2, Message: "backed out", Cancelled: true})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)
}

func TestTransition_RejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []float64{0, -10} {
		s, err := Transition(StatusIdle, EventResolve{Amount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, StatusIdle, s)
	}
}

func TestTransition_RejectsOutOfOrderEvents(t *testing.T) {
	tests := []struct {
		name  string
		state Status
		event Event
	}{
		{"open before resolve", StatusIdle, EventOpen{}},
		{"succeed before open", StatusIdle, EventSucceed{}},
		{"succeed after resolve", StatusAmountResolved, EventSucceed{}},
		{"fail before open", StatusAmountResolved, EventFail{}},
		{"resolve twice", StatusAmountResolved, EventResolve{Amount: 1}},
		{"succeed after terminal", StatusSucceeded, EventSucceed{}},
		{"fail after terminal", StatusCancelled, EventFail{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.state, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusIdle.Terminal())
	assert.False(t, StatusAmountResolved.Terminal())
	assert.False(t, StatusPaymentOpened.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
