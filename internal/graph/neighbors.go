package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/cskg-labs/cskg/internal/store"
)

// Neighbor is a node reachable from another node, with the relations that
// connect them aggregated.
type Neighbor struct {
	ID             string
	Label          string
	Relations      []string
	RelationLabels []string
}

// Reach is a node reached by a multi-hop expansion, carrying the relation
// label of the final hop.
type Reach struct {
	ID            string
	Label         string
	RelationLabel string
}

// Neighbors returns the neighbors of nodeID in the given direction.
// Relations reaching the same neighbor are deduplicated and sorted.
// Returns store.ErrNotFound if the node does not exist; an existing but
// isolated node yields an empty result.
func (e *Engine) Neighbors(ctx context.Context, nodeID string, dir Direction) ([]Neighbor, error) {
	if _, err := e.store.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}

	type agg struct {
		relations      map[string]struct{}
		relationLabels map[string]struct{}
	}
	byNeighbor := make(map[string]*agg)

	collect := func(edges []store.Edge, pick func(store.Edge) string) {
		for _, edge := range edges {
			other := pick(edge)
			a, ok := byNeighbor[other]
			if !ok {
				a = &agg{
					relations:      make(map[string]struct{}),
					relationLabels: make(map[string]struct{}),
				}
				byNeighbor[other] = a
			}
			a.relations[edge.Relation] = struct{}{}
			a.relationLabels[edge.RelationLabel] = struct{}{}
		}
	}

	if dir == DirectionOut || dir == DirectionBoth {
		edges, err := e.store.EdgesFrom(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		collect(edges, func(edge store.Edge) string { return edge.Node2 })
	}
	if dir == DirectionIn || dir == DirectionBoth {
		edges, err := e.store.EdgesTo(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		collect(edges, func(edge store.Edge) string { return edge.Node1 })
	}

	ids := make([]string, 0, len(byNeighbor))
	for id := range byNeighbor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	labels, err := e.store.NodeLabels(ctx, ids)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(ids))
	for _, id := range ids {
		a := byNeighbor[id]
		neighbors = append(neighbors, Neighbor{
			ID:             id,
			Label:          labels[id],
			Relations:      sortedKeys(a.relations),
			RelationLabels: sortedKeys(a.relationLabels),
		})
	}
	return neighbors, nil
}

// TwoHop returns the nodes reachable in exactly two hops in the given
// direction, with the relation label of the second hop. Direction must be
// out or in; the bidirectional two-hop expansion is not defined.
func (e *Engine) TwoHop(ctx context.Context, nodeID string, dir Direction) ([]Reach, error) {
	if dir != DirectionOut && dir != DirectionIn {
		return nil, fmt.Errorf("%w: two-hop expansion requires direction out or in", ErrInvalidArgument)
	}
	if _, err := e.store.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}

	firstHop, err := e.directedEdges(ctx, nodeID, dir)
	if err != nil {
		return nil, err
	}

	frontier := make(map[string]struct{})
	for _, edge := range firstHop {
		frontier[e.otherEnd(edge, dir)] = struct{}{}
	}

	type key struct{ id, relationLabel string }
	seen := make(map[key]struct{})
	var reached []Reach

	for _, mid := range sortedKeys(frontier) {
		edges, err := e.directedEdges(ctx, mid, dir)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			far := e.otherEnd(edge, dir)
			k := key{far, edge.RelationLabel}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			reached = append(reached, Reach{ID: far, RelationLabel: edge.RelationLabel})
		}
	}

	ids := make([]string, 0, len(reached))
	for _, r := range reached {
		ids = append(ids, r.ID)
	}
	labels, err := e.store.NodeLabels(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reached {
		reached[i].Label = labels[reached[i].ID]
	}

	sort.Slice(reached, func(i, j int) bool {
		if reached[i].ID != reached[j].ID {
			return reached[i].ID < reached[j].ID
		}
		return reached[i].RelationLabel < reached[j].RelationLabel
	})
	return reached, nil
}

// NeighborCount returns the neighbor count for nodeID. For out and in it
// counts edges (parallel edges included); for both it counts distinct
// neighbors irrespective of direction.
func (e *Engine) NeighborCount(ctx context.Context, nodeID string, dir Direction) (int64, error) {
	if _, err := e.store.GetNode(ctx, nodeID); err != nil {
		return 0, err
	}

	switch dir {
	case DirectionOut:
		return e.store.CountEdgesFrom(ctx, nodeID)
	case DirectionIn:
		return e.store.CountEdgesTo(ctx, nodeID)
	case DirectionBoth:
		return e.store.CountNeighbors(ctx, nodeID)
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, dir)
	}
}

func (e *Engine) directedEdges(ctx context.Context, nodeID string, dir Direction) ([]store.Edge, error) {
	if dir == DirectionOut {
		return e.store.EdgesFrom(ctx, nodeID)
	}
	return e.store.EdgesTo(ctx, nodeID)
}

func (e *Engine) otherEnd(edge store.Edge, dir Direction) string {
	if dir == DirectionOut {
		return edge.Node2
	}
	return edge.Node1
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
