package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1 is the creator; 2 and 5 joined from 1; 3 from 2; 4 from 3.
func sampleChain() []Node {
	return []Node{
		{UserID: 1},
		{UserID: 2, ParentID: 1},
		{UserID: 3, ParentID: 2},
		{UserID: 4, ParentID: 3},
		{UserID: 5, ParentID: 1},
	}
}

func TestPathToRoot(t *testing.T) {
	path, err := PathToRoot(sampleChain(), 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2, 1}, path)

	path, err = PathToRoot(sampleChain(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, path)
}

func TestPathToRootUnknown(t *testing.T) {
	_, err := PathToRoot(sampleChain(), 42)
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestPathToRootDanglingParent(t *testing.T) {
	nodes := []Node{{UserID: 1}, {UserID: 2, ParentID: 9}}
	_, err := PathToRoot(nodes, 2)
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestPathToRootCycle(t *testing.T) {
	nodes := []Node{{UserID: 1, ParentID: 2}, {UserID: 2, ParentID: 1}}
	_, err := PathToRoot(nodes, 1)
	require.ErrorIs(t, err, ErrCycle)
}

func TestDepth(t *testing.T) {
	d, err := Depth(sampleChain(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, d)

	d, err = Depth(sampleChain(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, d)
}

func TestRoot(t *testing.T) {
	root, err := Root(sampleChain())
	require.NoError(t, err)
	assert.Equal(t, int64(1), root)

	_, err = Root([]Node{{UserID: 1, ParentID: 2}})
	require.ErrorIs(t, err, ErrNoRoot)
}

func TestSubtree(t *testing.T) {
	sub, err := Subtree(sampleChain(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, sub)

	sub, err = Subtree(sampleChain(), 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, sub)

	all, err := Subtree(sampleChain(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, all)
}
