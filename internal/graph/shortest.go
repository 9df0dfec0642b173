package graph

import (
	"container/heap"
	"fmt"
	"math"
	"strings"
)

// Metric selects the edge weight minimized by ShortestPath.
type Metric string

const (
	// MetricDistance minimizes total kilometres.
	MetricDistance Metric = "DISTANCE"
	// MetricTime minimizes total travel hours.
	MetricTime Metric = "TIME"
)

// ParseMetric converts a case-insensitive name to a Metric.
// The empty string yields MetricTime.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(MetricTime):
		return MetricTime, nil
	case string(MetricDistance):
		return MetricDistance, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricDistance || m == MetricTime
}

// PathResult is the outcome of a successful search.
type PathResult struct {
	Nodes                []NodeID
	TotalDistanceKm      float64
	TotalTravelTimeHours float64
	Metric               Metric
}

// ShortestPath runs Dijkstra from start to end minimizing metric.
// Distance and time are accumulated together along the chosen predecessor
// chain, so the reported totals always belong to the returned path.
// Equal-cost candidates are settled in node insertion order.
func (g *Graph) ShortestPath(start, end NodeID, metric Metric) (*PathResult, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	s, ok := g.index[start]
	if !ok {
		return nil, fmt.Errorf("%w: start %d", ErrNodeNotFound, start)
	}
	t, ok := g.index[end]
	if !ok {
		return nil, fmt.Errorf("%w: end %d", ErrNodeNotFound, end)
	}

	if s == t {
		return &PathResult{Nodes: []NodeID{start}, Metric: metric}, nil
	}

	if len(g.adj[s]) == 0 {
		return nil, fmt.Errorf("%w: start %d", ErrNodeDisconnected, start)
	}
	if len(g.adj[t]) == 0 {
		return nil, fmt.Errorf("%w: end %d", ErrNodeDisconnected, end)
	}

	n := len(g.nodes)
	dist := make([]float64, n)
	hours := make([]float64, n)
	prev := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		hours[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[s], hours[s] = 0, 0

	cost := func(i int) float64 {
		if metric == MetricTime {
			return hours[i]
		}
		return dist[i]
	}

	pq := &priorityQueue{}
	heap.Push(pq, &pqItem{node: s, priority: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.node
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == t {
			return &PathResult{
				Nodes:                g.reconstruct(prev, t),
				TotalDistanceKm:      dist[t],
				TotalTravelTimeHours: hours[t],
				Metric:               metric,
			}, nil
		}

		for _, e := range g.adj[u] {
			v := e.to
			if visited[v] {
				continue
			}

			candDist := dist[u] + e.distanceKm
			candHours := hours[u] + e.travelTimeHours
			candCost := candDist
			if metric == MetricTime {
				candCost = candHours
			}

			if candCost < cost(v) {
				dist[v] = candDist
				hours[v] = candHours
				prev[v] = u
				heap.Push(pq, &pqItem{node: v, priority: candCost})
			}
		}
	}

	return nil, fmt.Errorf("%w: %d to %d", ErrNoPath, start, end)
}

func (g *Graph) reconstruct(prev []int, end int) []NodeID {
	var rev []NodeID
	for cur := end; cur >= 0; cur = prev[cur] {
		rev = append(rev, g.nodes[cur].ID)
	}

	path := make([]NodeID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

type pqItem struct {
	node     int
	priority float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

// Less breaks cost ties by node insertion index.
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
