package pathfind

import "github.com/civsim/engine/internal/grid"

// --- Min-heap for A* ---

type node struct {
	idx int // flat grid index (y*width + x)
	f   int // g + h
	h   int
	seq int // insertion order, last tie-break
}

func (a node) less(b node) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

type minHeap []node

func (h *minHeap) push(n node) {
	*h = append(*h, n)
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !(*h)[i].less((*h)[parent]) {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() node {
	old := *h
	n := len(old)
	top := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && (*h)[right].less((*h)[left]) {
			smallest = right
		}
		if !(*h)[smallest].less((*h)[i]) {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return top
}

// StepCost is the cost of entering t, or false if t cannot be entered.
// Passable terrain always costs at least 1 so the Manhattan heuristic stays
// admissible.
func StepCost(terrain grid.Terrain, t grid.Tile) (int, bool) {
	info, ok := terrain.At(t)
	if !ok || !info.Enterable() {
		return 0, false
	}
	if info.MoveCost < 1 {
		return 1, true
	}
	return info.MoveCost, true
}

// FindPath returns the cheapest 4-connected path from start to goal,
// including both endpoints, or false when the goal is unreachable.
// Neighbours are expanded N, E, S, W; equal f-scores prefer the lower
// heuristic, then the earlier insertion, so results are deterministic.
func FindPath(start, goal grid.Tile, terrain grid.Terrain) ([]grid.Tile, bool) {
	w, h := terrain.Width(), terrain.Height()
	if !grid.InBounds(start, w, h) || !grid.InBounds(goal, w, h) {
		return nil, false
	}
	if start == goal {
		return []grid.Tile{start}, true
	}
	if _, ok := StepCost(terrain, goal); !ok {
		return nil, false
	}

	size := w * h
	g := make([]int, size)
	for i := range g {
		g[i] = -1
	}
	closed := make([]bool, size)
	cameFrom := make([]int32, size)

	index := func(t grid.Tile) int { return t.Y*w + t.X }
	tileAt := func(i int) grid.Tile { return grid.Tile{X: i % w, Y: i / w} }

	startIdx, goalIdx := index(start), index(goal)
	g[startIdx] = 0
	cameFrom[startIdx] = -1

	open := make(minHeap, 0, 64)
	seq := 0
	hs := grid.Manhattan(start, goal)
	open.push(node{idx: startIdx, f: hs, h: hs, seq: seq})

	for len(open) > 0 {
		cur := open.pop()
		if closed[cur.idx] {
			continue
		}
		if cur.idx == goalIdx {
			return reconstruct(cameFrom, goalIdx, tileAt), true
		}
		closed[cur.idx] = true

		for _, nb := range tileAt(cur.idx).Neighbors4() {
			if !grid.InBounds(nb, w, h) {
				continue
			}
			ni := index(nb)
			if closed[ni] {
				continue
			}
			cost, ok := StepCost(terrain, nb)
			if !ok {
				continue
			}
			ng := g[cur.idx] + cost
			if g[ni] >= 0 && ng >= g[ni] {
				continue
			}
			g[ni] = ng
			cameFrom[ni] = int32(cur.idx)
			seq++
			hn := grid.Manhattan(nb, goal)
			open.push(node{idx: ni, f: ng + hn, h: hn, seq: seq})
		}
	}
	return nil, false
}

func reconstruct(cameFrom []int32, goal int, tileAt func(int) grid.Tile) []grid.Tile {
	var rev []grid.Tile
	for i := goal; i >= 0; i = int(cameFrom[i]) {
		rev = append(rev, tileAt(i))
	}
	path := make([]grid.Tile, len(rev))
	for i, t := range rev {
		path[len(rev)-1-i] = t
	}
	return path
}

// PathCost sums the entry cost of every tile after the first.
func PathCost(path []grid.Tile, terrain grid.Terrain) int {
	total := 0
	for i := 1; i < len(path); i++ {
		c, _ := StepCost(terrain, path[i])
		total += c
	}
	return total
}
