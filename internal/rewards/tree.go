// Package rewards holds the chain graph helpers and reward split arithmetic.
// Nothing here touches storage; callers load participants and apply results.
package rewards

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownParticipant = errors.New("participant not in chain")
	ErrCycle              = errors.New("chain contains a cycle")
	ErrNoRoot             = errors.New("chain has no root")
)

// Node is one participant of a chain. ParentID is zero for the root.
type Node struct {
	UserID      int64
	ParentID    int64
	FrozenUntil *time.Time
}

func (n Node) frozenAt(now time.Time) bool {
	return n.FrozenUntil != nil && n.FrozenUntil.After(now)
}

func index(nodes []Node) map[int64]Node {
	byID := make(map[int64]Node, len(nodes))
	for _, n := range nodes {
		byID[n.UserID] = n
	}
	return byID
}

// PathToRoot returns userID followed by each ancestor up to and including the root.
func PathToRoot(nodes []Node, userID int64) ([]int64, error) {
	byID := index(nodes)
	if _, ok := byID[userID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParticipant, userID)
	}

	path := make([]int64, 0, 8)
	seen := make(map[int64]bool, 8)
	current := userID
	for {
		if seen[current] {
			return nil, ErrCycle
		}
		seen[current] = true
		path = append(path, current)

		node := byID[current]
		if node.ParentID == 0 {
			return path, nil
		}
		if _, ok := byID[node.ParentID]; !ok {
			return nil, fmt.Errorf("%w: parent %d of %d", ErrUnknownParticipant, node.ParentID, current)
		}
		current = node.ParentID
	}
}

// Depth is the number of hops between userID and the root.
func Depth(nodes []Node, userID int64) (int, error) {
	path, err := PathToRoot(nodes, userID)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// Root returns the single participant without a parent.
func Root(nodes []Node) (int64, error) {
	for _, n := range nodes {
		if n.ParentID == 0 {
			return n.UserID, nil
		}
	}
	return 0, ErrNoRoot
}

// Subtree returns userID and all of its descendants in breadth-first order.
func Subtree(nodes []Node, userID int64) ([]int64, error) {
	if _, ok := index(nodes)[userID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParticipant, userID)
	}

	children := make(map[int64][]int64, len(nodes))
	for _, n := range nodes {
		if n.ParentID != 0 {
			children[n.ParentID] = append(children[n.ParentID], n.UserID)
		}
	}

	out := []int64{userID}
	seen := map[int64]bool{userID: true}
	for i := 0; i < len(out); i++ {
		for _, child := range children[out[i]] {
			if seen[child] {
				return nil, ErrCycle
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out, nil
}
