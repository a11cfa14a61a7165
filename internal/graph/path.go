package graph

import (
	"context"
	"fmt"
	"sort"
)

// Path is a simple path between two nodes.
type Path struct {
	// Nodes is the ordered node-id sequence, source first.
	Nodes []string `json:"nodes"`
	// Labels holds the display label for each entry in Nodes.
	Labels []string `json:"labels"`
	// Hops is the number of edges traversed.
	Hops int `json:"hops"`
}

// ShortestPath finds a minimum-hop path between source and target using
// breadth-first search over undirected adjacency, restricted to edges whose
// relation is in the whitelist and to paths of at most maxDepth hops.
// Neighbor lookups are issued lazily per dequeued node. Returns nil when the
// search space is exhausted without reaching target, and store.ErrNotFound
// when either endpoint does not exist. Ties between equal-length paths are
// broken by deterministic enqueue order (candidate ids sorted per expansion).
func (e *Engine) ShortestPath(ctx context.Context, source, target string, maxDepth int, whitelist []string) (*Path, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: max depth must be positive", ErrInvalidArgument)
	}
	if len(whitelist) == 0 {
		whitelist = DefaultPathRelations
	}
	if _, err := e.store.GetNode(ctx, source); err != nil {
		return nil, err
	}
	if _, err := e.store.GetNode(ctx, target); err != nil {
		return nil, err
	}

	if source == target {
		return e.withLabels(ctx, []string{source})
	}

	type state struct {
		node string
		path []string
	}

	queue := []state{{node: source, path: []string{source}}}
	visited := make(map[string]struct{})

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur := queue[0]
		queue = queue[1:]

		if cur.node == target {
			return e.withLabels(ctx, cur.path)
		}

		hops := len(cur.path) - 1
		if hops >= maxDepth {
			continue
		}
		if _, seen := visited[cur.node]; seen {
			continue
		}
		visited[cur.node] = struct{}{}

		candidates, err := e.undirectedNeighbors(ctx, cur.node, whitelist)
		if err != nil {
			return nil, err
		}

		for _, next := range candidates {
			if _, seen := visited[next]; seen {
				continue
			}
			if containsNode(cur.path, next) {
				continue
			}
			path := make([]string, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			queue = append(queue, state{node: next, path: append(path, next)})
		}
	}

	return nil, nil
}

// undirectedNeighbors returns the distinct nodes adjacent to nodeID through
// whitelisted edges in either direction, sorted for deterministic expansion.
func (e *Engine) undirectedNeighbors(ctx context.Context, nodeID string, whitelist []string) ([]string, error) {
	set := make(map[string]struct{})

	out, err := e.store.EdgesFromFiltered(ctx, nodeID, whitelist)
	if err != nil {
		return nil, err
	}
	for _, edge := range out {
		set[edge.Node2] = struct{}{}
	}

	in, err := e.store.EdgesToFiltered(ctx, nodeID, whitelist)
	if err != nil {
		return nil, err
	}
	for _, edge := range in {
		set[edge.Node1] = struct{}{}
	}

	delete(set, nodeID)

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (e *Engine) withLabels(ctx context.Context, nodes []string) (*Path, error) {
	labels, err := e.store.NodeLabels(ctx, nodes)
	if err != nil {
		return nil, err
	}
	p := &Path{Nodes: nodes, Labels: make([]string, len(nodes)), Hops: len(nodes) - 1}
	for i, id := range nodes {
		p.Labels[i] = labels[id]
	}
	return p, nil
}

func containsNode(path []string, id string) bool {
	for _, n := range path {
		if n == id {
			return true
		}
	}
	return false
}
