package circuit

import (
	"container/heap"
	"fmt"
)

// pathItem is a frontier entry. seq is a monotonically increasing
// discovery counter so equal-priority pops come out in insertion order and
// the search is deterministic.
type pathItem struct {
	node     NodeID
	priority int
	seq      int
	index    int
}

type pathQueue []*pathItem

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q pathQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *pathQueue) Push(x any) {
	item := x.(*pathItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// FindPath finds a shortest electrical path between two components using
// A* with unit hop cost and a zero heuristic, which reduces to a
// deterministic uniform-cost search. The returned path alternates
// component and net labels, starting and ending with the endpoint
// reference designators. A nil path with nil error means the components
// are not electrically connected.
func (g *Graph) FindPath(fromRef, toRef string) ([]string, error) {
	fromID, ok := g.compByRef[fromRef]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, fromRef)
	}
	toID, ok := g.compByRef[toRef]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, toRef)
	}
	if fromID == toID {
		return []string{fromRef}, nil
	}

	dist := make(map[NodeID]int)
	prev := make(map[NodeID]NodeID)
	dist[fromID] = 0

	seq := 0
	frontier := &pathQueue{}
	heap.Init(frontier)
	heap.Push(frontier, &pathItem{node: fromID, priority: 0, seq: seq})

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(*pathItem)
		if current.node == toID {
			return g.reconstructPath(prev, fromID, toID), nil
		}
		if current.priority > dist[current.node] {
			continue
		}
		for _, nb := range g.Neighbors(current.node) {
			next := dist[current.node] + 1
			if d, seen := dist[nb]; !seen || next < d {
				dist[nb] = next
				prev[nb] = current.node
				seq++
				heap.Push(frontier, &pathItem{node: nb, priority: next, seq: seq})
			}
		}
	}

	return nil, nil
}

func (g *Graph) reconstructPath(prev map[NodeID]NodeID, from, to NodeID) []string {
	var rev []NodeID
	for at := to; ; {
		rev = append(rev, at)
		if at == from {
			break
		}
		at = prev[at]
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		node := g.nodes[id]
		if node.Kind == KindComponent {
			out[len(rev)-1-i] = node.Component.RefDes
		} else {
			out[len(rev)-1-i] = node.Net.Name
		}
	}
	return out
}
