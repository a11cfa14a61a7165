package graph

import (
	"context"
	"sort"
)

// Similarity kinds reported by SimilarNodes.
const (
	SimilarityCommonParent = "common_parent"
	SimilarityCommonChild  = "common_child"
)

// SimilarNode is a candidate sharing a parent or child with the queried
// node through the same relation type.
type SimilarNode struct {
	ID    string
	Label string
	// Kinds lists the similarity kinds satisfied, sorted.
	Kinds []string
	// Relations lists the relation types that triggered the match, sorted.
	Relations []string
}

// SimilarNodes finds nodes similar to nodeID. A candidate y is a
// common-parent match when some node p has edges p-r->nodeID and p-r->y for
// the same relation r, and a common-child match when some node c has edges
// nodeID-r->c and y-r->c. A candidate satisfying both reports both kinds.
// Results are ordered by label, then id.
func (e *Engine) SimilarNodes(ctx context.Context, nodeID string) ([]SimilarNode, error) {
	if _, err := e.store.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}

	type agg struct {
		kinds     map[string]struct{}
		relations map[string]struct{}
	}
	candidates := make(map[string]*agg)

	record := func(id, kind, relation string) {
		a, ok := candidates[id]
		if !ok {
			a = &agg{
				kinds:     make(map[string]struct{}),
				relations: make(map[string]struct{}),
			}
			candidates[id] = a
		}
		a.kinds[kind] = struct{}{}
		a.relations[relation] = struct{}{}
	}

	// Common parents: for each edge p -r-> node, siblings are the r-typed
	// children of p other than node.
	inbound, err := e.store.EdgesTo(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	for _, edge := range inbound {
		siblings, err := e.store.EdgesFromFiltered(ctx, edge.Node1, []string{edge.Relation})
		if err != nil {
			return nil, err
		}
		for _, sib := range siblings {
			if sib.Node2 != nodeID {
				record(sib.Node2, SimilarityCommonParent, sib.Relation)
			}
		}
	}

	// Common children: for each edge node -r-> c, co-parents are the r-typed
	// parents of c other than node.
	outbound, err := e.store.EdgesFrom(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	for _, edge := range outbound {
		coparents, err := e.store.EdgesToFiltered(ctx, edge.Node2, []string{edge.Relation})
		if err != nil {
			return nil, err
		}
		for _, cop := range coparents {
			if cop.Node1 != nodeID {
				record(cop.Node1, SimilarityCommonChild, cop.Relation)
			}
		}
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	labels, err := e.store.NodeLabels(ctx, ids)
	if err != nil {
		return nil, err
	}

	similar := make([]SimilarNode, 0, len(candidates))
	for id, a := range candidates {
		similar = append(similar, SimilarNode{
			ID:        id,
			Label:     labels[id],
			Kinds:     sortedKeys(a.kinds),
			Relations: sortedKeys(a.relations),
		})
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Label != similar[j].Label {
			return similar[i].Label < similar[j].Label
		}
		return similar[i].ID < similar[j].ID
	})
	return similar, nil
}
