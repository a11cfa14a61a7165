package graph

import (
	"context"
	"fmt"
	"sort"
)

// RelatedNode is a node reached by signed synonym/antonym propagation.
type RelatedNode struct {
	ID    string
	Label string
	// PathLabels is the label sequence of the first shortest path found,
	// source first.
	PathLabels []string
}

// DistantRelated finds the nodes whose shortest synonym/antonym path from
// nodeID has exactly the given length and the requested parity: an even
// number of antonym hops keeps the meaning (synonym-like), an odd number
// flips it (antonym-like). Propagation walks edges undirected over the
// synonym and antonym relations only. For every reachable node the first
// shortest path is retained; nodes whose retained path is shorter than
// distance or carries the wrong parity are excluded, as is nodeID itself.
// Results are sorted by id.
func (e *Engine) DistantRelated(ctx context.Context, nodeID string, distance int, wantAntonym bool) ([]RelatedNode, error) {
	if distance <= 0 {
		return nil, fmt.Errorf("%w: distance must be positive", ErrInvalidArgument)
	}
	if _, err := e.store.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}

	relations := []string{RelationSynonym, RelationAntonym}

	type state struct {
		node    string
		dist    int
		antonym bool
		path    []string
	}
	type result struct {
		dist    int
		antonym bool
		path    []string
	}

	// Paths are enumerated exhaustively up to the distance bound: the same
	// node can be reached with either parity depending on the route, so a
	// plain visited set would lose valid sign combinations. Per node only the
	// first encounter is kept, which BFS order makes the shortest.
	best := make(map[string]result)
	queue := []state{{node: nodeID, dist: 0, antonym: false, path: []string{nodeID}}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur := queue[0]
		queue = queue[1:]

		if _, seen := best[cur.node]; !seen && cur.node != nodeID {
			best[cur.node] = result{dist: cur.dist, antonym: cur.antonym, path: cur.path}
		}
		if cur.dist >= distance {
			continue
		}

		steps, err := e.signedNeighbors(ctx, cur.node, relations)
		if err != nil {
			return nil, err
		}
		for _, step := range steps {
			if containsNode(cur.path, step.node) {
				continue
			}
			path := make([]string, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			queue = append(queue, state{
				node:    step.node,
				dist:    cur.dist + 1,
				antonym: cur.antonym != step.flips,
				path:    append(path, step.node),
			})
		}
	}

	var ids []string
	labelSet := make(map[string]struct{})
	for id, r := range best {
		if r.dist != distance || r.antonym != wantAntonym {
			continue
		}
		ids = append(ids, id)
		for _, n := range r.path {
			labelSet[n] = struct{}{}
		}
	}
	sort.Strings(ids)

	labels, err := e.store.NodeLabels(ctx, sortedKeys(labelSet))
	if err != nil {
		return nil, err
	}

	related := make([]RelatedNode, 0, len(ids))
	for _, id := range ids {
		r := best[id]
		pathLabels := make([]string, len(r.path))
		for i, n := range r.path {
			pathLabels[i] = labels[n]
		}
		related = append(related, RelatedNode{ID: id, Label: labels[id], PathLabels: pathLabels})
	}
	return related, nil
}

type signedStep struct {
	node string
	// flips reports whether the hop inverts the sign (antonym edge).
	flips bool
}

// signedNeighbors returns the undirected synonym/antonym steps out of
// nodeID, ordered by neighbor id with synonym steps before antonym steps.
func (e *Engine) signedNeighbors(ctx context.Context, nodeID string, relations []string) ([]signedStep, error) {
	var steps []signedStep

	out, err := e.store.EdgesFromFiltered(ctx, nodeID, relations)
	if err != nil {
		return nil, err
	}
	for _, edge := range out {
		steps = append(steps, signedStep{node: edge.Node2, flips: edge.Relation == RelationAntonym})
	}

	in, err := e.store.EdgesToFiltered(ctx, nodeID, relations)
	if err != nil {
		return nil, err
	}
	for _, edge := range in {
		steps = append(steps, signedStep{node: edge.Node1, flips: edge.Relation == RelationAntonym})
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].node != steps[j].node {
			return steps[i].node < steps[j].node
		}
		return !steps[i].flips && steps[j].flips
	})
	return steps, nil
}
