package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperandStackPushPopOrder(t *testing.T) {
	var s operandStack
	require.NoError(t, s.push(1))
	require.NoError(t, s.push(2))
	require.NoError(t, s.push(3))
	require.Equal(t, 3, s.len())

	top, err := s.peek()
	require.NoError(t, err)
	require.EqualValues(t, 3, top)

	v, err := s.pop()
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	v, err = s.pop()
	require.NoError(t, err)
	require.EqualValues(t, 2, v)

	require.Equal(t, 1, s.len())
}

func TestOperandStackUnderflow(t *testing.T) {
	var s operandStack
	_, err := s.pop()
	require.ErrorIs(t, err, ErrStackUnderflow)

	_, err = s.peek()
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestOperandStackOverflow(t *testing.T) {
	var s operandStack
	for i := 0; i < stackCapacity; i++ {
		require.NoError(t, s.push(int32(i)))
	}
	err := s.push(0)
	require.ErrorIs(t, err, ErrStackOverflow)
}

func TestOperandStackSwapTop(t *testing.T) {
	var s operandStack
	require.NoError(t, s.push(1))
	require.NoError(t, s.push(2))
	require.NoError(t, s.swapTop())

	top, err := s.pop()
	require.NoError(t, err)
	require.EqualValues(t, 1, top)

	bottom, err := s.pop()
	require.NoError(t, err)
	require.EqualValues(t, 2, bottom)
}

func TestOperandStackSwapTopUnderflow(t *testing.T) {
	var s operandStack
	require.NoError(t, s.push(1))
	require.ErrorIs(t, s.swapTop(), ErrStackUnderflow)
}

func TestOperandStackPopUntil(t *testing.T) {
	var s operandStack
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.push(int32(i)))
	}
	s.popUntil(2)
	require.Equal(t, 2, s.len())
	top, err := s.peek()
	require.NoError(t, err)
	require.EqualValues(t, 2, top)

	// popUntil past the bottom clamps to empty rather than going negative.
	s.popUntil(-3)
	require.Equal(t, 0, s.len())
}

func TestOperandStackBorrowTopN(t *testing.T) {
	var s operandStack
	require.NoError(t, s.push(10))
	require.NoError(t, s.push(20))
	require.NoError(t, s.push(30))

	args, err := s.borrowTopN(2)
	require.NoError(t, err)
	require.Equal(t, []int32{20, 30}, args)
	require.Equal(t, 3, s.len()) // borrowing does not mutate sp

	_, err = s.borrowTopN(4)
	require.ErrorIs(t, err, ErrStackUnderflow)

	none, err := s.borrowTopN(0)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestOperandStackReset(t *testing.T) {
	var s operandStack
	require.NoError(t, s.push(1))
	require.NoError(t, s.push(2))
	s.reset()
	require.Equal(t, 0, s.len())
	_, err := s.peek()
	require.ErrorIs(t, err, ErrStackUnderflow)
}
