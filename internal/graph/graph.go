// Package graph builds an undirected road graph from map features and runs
// nearest-node lookups and shortest-path searches over it.
//
// A Graph is built per request and is read-only afterwards, so it can be
// shared between goroutines once Build returns.
package graph

import (
	"errors"
	"fmt"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// DefaultSpeedKmh is the travel speed assumed for ways without a speed of their own.
const DefaultSpeedKmh = 50.0

// Sentinel errors for graph operations.
var (
	// ErrInsufficientNetwork indicates the input produced no nodes or no edges.
	ErrInsufficientNetwork = errors.New("insufficient road network data")
	// ErrNoNearbyNode indicates no node lies within the snapping distance.
	ErrNoNearbyNode = errors.New("no road node within snapping distance")
	// ErrNodeNotFound indicates a node id that is not part of the graph.
	ErrNodeNotFound = errors.New("node not found in graph")
	// ErrNodeDisconnected indicates a node that has no incident edges.
	ErrNodeDisconnected = errors.New("node is not connected to the road network")
	// ErrNoPath indicates the destination is unreachable from the start.
	ErrNoPath = errors.New("no path between nodes")
	// ErrUnknownMetric indicates an unsupported optimization metric.
	ErrUnknownMetric = errors.New("unknown route metric")
)

// NodeID identifies a node. Values come from the upstream map data and are
// only meaningful within the graph built from it.
type NodeID int64

// Node is a graph vertex with its position.
type Node struct {
	ID         NodeID
	Coordinate geo.Coordinate
}

// Edge is one direction of a road segment.
type Edge struct {
	To              NodeID
	DistanceKm      float64
	TravelTimeHours float64
}

// PointFeature is a raw map point.
type PointFeature struct {
	ID  NodeID
	Lat float64
	Lon float64
}

// Way is an ordered polyline of node references.
type Way struct {
	ID      int64
	NodeIDs []NodeID
	// SpeedKmh overrides BuildOptions.DefaultSpeedKmh for this way when positive.
	SpeedKmh float64
}

// BuildOptions configures Build.
type BuildOptions struct {
	DefaultSpeedKmh float64 // Default: 50
}

// NetworkError reports why Build rejected its input.
type NetworkError struct {
	NodeCount int
	EdgeCount int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %d nodes, %d edges", ErrInsufficientNetwork, e.NodeCount, e.EdgeCount)
}

func (e *NetworkError) Unwrap() error {
	return ErrInsufficientNetwork
}

// Graph is an undirected weighted road graph. Nodes and adjacency lists keep
// insertion order, which makes searches deterministic.
type Graph struct {
	nodes     []Node
	index     map[NodeID]int
	adj       [][]halfEdge
	edgeCount int
}

// halfEdge stores the neighbour as a dense index.
type halfEdge struct {
	to              int
	distanceKm      float64
	travelTimeHours float64
}

// Build constructs a graph from point features and ways.
//
// Every point feature becomes a node; a repeated id keeps its first position
// and takes the latest coordinates. Each consecutive node pair of a way adds
// one edge in both directions. Pairs referencing unknown nodes, or the same
// node twice, are skipped. Parallel edges between the same pair are kept.
func Build(points []PointFeature, ways []Way, opts BuildOptions) (*Graph, error) {
	if opts.DefaultSpeedKmh <= 0 {
		opts.DefaultSpeedKmh = DefaultSpeedKmh
	}

	g := &Graph{
		nodes: make([]Node, 0, len(points)),
		index: make(map[NodeID]int, len(points)),
	}

	for _, p := range points {
		coord := geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
		if i, ok := g.index[p.ID]; ok {
			g.nodes[i].Coordinate = coord
			continue
		}
		g.index[p.ID] = len(g.nodes)
		g.nodes = append(g.nodes, Node{ID: p.ID, Coordinate: coord})
	}
	g.adj = make([][]halfEdge, len(g.nodes))

	for _, w := range ways {
		speed := opts.DefaultSpeedKmh
		if w.SpeedKmh > 0 {
			speed = w.SpeedKmh
		}

		for i := 0; i+1 < len(w.NodeIDs); i++ {
			a, okA := g.index[w.NodeIDs[i]]
			b, okB := g.index[w.NodeIDs[i+1]]
			if !okA || !okB || a == b {
				continue
			}

			dist := geo.DistanceKm(g.nodes[a].Coordinate, g.nodes[b].Coordinate)
			hours := dist / speed

			g.adj[a] = append(g.adj[a], halfEdge{to: b, distanceKm: dist, travelTimeHours: hours})
			g.adj[b] = append(g.adj[b], halfEdge{to: a, distanceKm: dist, travelTimeHours: hours})
			g.edgeCount++
		}
	}

	if len(g.nodes) == 0 || g.edgeCount == 0 {
		return nil, &NetworkError{NodeCount: len(g.nodes), EdgeCount: g.edgeCount}
	}

	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Neighbors returns the outgoing edges of a node in insertion order.
func (g *Graph) Neighbors(id NodeID) []Edge {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]Edge, len(g.adj[i]))
	for k, e := range g.adj[i] {
		out[k] = Edge{
			To:              g.nodes[e.to].ID,
			DistanceKm:      e.distanceKm,
			TravelTimeHours: e.travelTimeHours,
		}
	}
	return out
}

// HasEdges reports whether the node exists and has at least one incident edge.
func (g *Graph) HasEdges(id NodeID) bool {
	i, ok := g.index[id]
	return ok && len(g.adj[i]) > 0
}

// Coordinates maps node ids to their positions.
func (g *Graph) Coordinates(ids []NodeID) ([]geo.Coordinate, error) {
	out := make([]geo.Coordinate, 0, len(ids))
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
		out = append(out, n.Coordinate)
	}
	return out, nil
}
