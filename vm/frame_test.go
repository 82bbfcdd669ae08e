package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameLoadStoreGrowsLocals(t *testing.T) {
	f := newFrame(0, 0)

	v, err := f.loadVar(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)

	f.storeVar(3, 42)
	require.Len(t, f.locals, 4)

	v, err = f.loadVar(3)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	v, err = f.loadVar(1)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}

func TestFrameLoadVarPastAllocationReturnsZero(t *testing.T) {
	f := newFrame(0, 0)
	f.locals = make([]int32, 2)

	v, err := f.loadVar(50)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}

func TestFrameStackSentinelCannotBePopped(t *testing.T) {
	fs := newFrameStack()
	require.Equal(t, 1, fs.depth())

	_, err := fs.pop()
	require.ErrorIs(t, err, ErrBadInvokeTarget)
}

func TestFrameStackPushSeedsArgsFromVarZero(t *testing.T) {
	fs := newFrameStack()
	f := fs.push(0, 5, []int32{7, 8}, 2)
	require.Equal(t, 2, fs.depth())
	require.Same(t, f, fs.current())

	v0, err := f.loadVar(0)
	require.NoError(t, err)
	require.EqualValues(t, 7, v0)

	v1, err := f.loadVar(1)
	require.NoError(t, err)
	require.EqualValues(t, 8, v1)
}

func TestFrameStackPushWithNoArgsZeroesVarZero(t *testing.T) {
	fs := newFrameStack()
	f := fs.push(0, 0, nil, 1)
	v0, err := f.loadVar(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, v0)
}

// TestFrameStackPushSizesLocalsToDeclaredVars covers the case a method
// header declares more locals than it has arguments: reading an
// as-yet-unstored local within that declared range must return 0, not trap.
func TestFrameStackPushSizesLocalsToDeclaredVars(t *testing.T) {
	fs := newFrameStack()
	f := fs.push(0, 0, []int32{9}, 3)
	require.Len(t, f.locals, 3)

	v2, err := f.loadVar(2)
	require.NoError(t, err)
	require.EqualValues(t, 0, v2)
}

func TestFrameStackPopRestoresCaller(t *testing.T) {
	fs := newFrameStack()
	fs.push(3, 9, []int32{1}, 1)
	f, err := fs.pop()
	require.NoError(t, err)
	require.Equal(t, 3, f.entryHeight)
	require.Equal(t, 9, f.restorePC)
	require.Equal(t, 1, fs.depth())
}

func TestFrameStackReset(t *testing.T) {
	fs := newFrameStack()
	fs.push(0, 0, []int32{1}, 1)
	fs.push(0, 0, []int32{2}, 1)
	fs.reset()
	require.Equal(t, 1, fs.depth())
}
