package balance

import (
	"math"
	"sort"

	"github.com/emirpasic/gods/trees/binaryheap"
	"gonum.org/v1/gonum/floats"
)

type kdNode struct {
	point       int
	axis        int
	left, right *kdNode
}

// kdTree answers k-nearest-neighbour queries over a fixed point set using
// Euclidean distance. Ties are broken by the lower point index, so results
// match a brute-force scan ordered by (distance, index).
type kdTree struct {
	points [][]float64
	dim    int
	root   *kdNode
}

func newKDTree(points [][]float64) *kdTree {
	t := &kdTree{points: points}
	if len(points) > 0 {
		t.dim = len(points[0])
	}
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(idx, 0)
	return t
}

func (t *kdTree) build(idx []int, depth int) *kdNode {
	if len(idx) == 0 {
		return nil
	}
	axis := 0
	if t.dim > 0 {
		axis = depth % t.dim
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := t.points[idx[i]], t.points[idx[j]]
		if t.dim == 0 || a[axis] == b[axis] {
			return idx[i] < idx[j]
		}
		return a[axis] < b[axis]
	})
	mid := len(idx) / 2
	return &kdNode{
		point: idx[mid],
		axis:  axis,
		left:  t.build(idx[:mid], depth+1),
		right: t.build(idx[mid+1:], depth+1),
	}
}

type candidate struct {
	point int
	dist  float64
}

func closer(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.point < b.point
}

// farthestFirst orders the heap so the worst kept candidate is on top.
func farthestFirst(a, b interface{}) int {
	ca, cb := a.(candidate), b.(candidate)
	switch {
	case closer(cb, ca):
		return -1
	case closer(ca, cb):
		return 1
	default:
		return 0
	}
}

// nearest returns the k points closest to point q, excluding q itself,
// ordered from nearest to farthest.
func (t *kdTree) nearest(q, k int) []int {
	heap := binaryheap.NewWith(farthestFirst)
	t.search(t.root, q, k, heap)

	out := make([]int, heap.Size())
	for i := len(out) - 1; i >= 0; i-- {
		v, _ := heap.Pop()
		out[i] = v.(candidate).point
	}
	return out
}

func (t *kdTree) search(n *kdNode, q, k int, heap *binaryheap.Heap) {
	if n == nil {
		return
	}
	if n.point != q {
		c := candidate{point: n.point, dist: floats.Distance(t.points[n.point], t.points[q], 2)}
		if heap.Size() < k {
			heap.Push(c)
		} else if top, _ := heap.Peek(); closer(c, top.(candidate)) {
			heap.Pop()
			heap.Push(c)
		}
	}
	if t.dim == 0 {
		t.search(n.left, q, k, heap)
		t.search(n.right, q, k, heap)
		return
	}

	diff := t.points[q][n.axis] - t.points[n.point][n.axis]
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	t.search(near, q, k, heap)
	if heap.Size() < k {
		t.search(far, q, k, heap)
		return
	}
	top, _ := heap.Peek()
	if math.Abs(diff) <= top.(candidate).dist {
		t.search(far, q, k, heap)
	}
}
