package graph

import (
	"context"
	"sort"
)

// Stats summarizes graph-wide connectivity.
type Stats struct {
	TotalNodes int64
	// Sources is the number of nodes with no outgoing edges.
	Sources int64
	// Sinks is the number of nodes with no incoming edges.
	Sinks int64
	// DegreeOne is the number of nodes occurring exactly once as an edge
	// endpoint, counting every occurrence (parallel edges included).
	DegreeOne int64
}

// RankedNode is a node together with its combined degree.
type RankedNode struct {
	ID     string
	Label  string
	Degree int64
}

// Stats returns graph-wide connectivity counts.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	total, err := e.store.CountNodes(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := e.store.SourceCount(ctx)
	if err != nil {
		return nil, err
	}
	sinks, err := e.store.SinkCount(ctx)
	if err != nil {
		return nil, err
	}
	degreeOne, err := e.store.DegreeOneCount(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalNodes: total,
		Sources:    sources,
		Sinks:      sinks,
		DegreeOne:  degreeOne,
	}, nil
}

// MaxDegreeNodes returns every node tied at the maximum combined degree,
// sorted by id. Degree is the number of distinct out-neighbors plus the
// number of distinct in-neighbors, counted independently per direction: a
// node linked to the same neighbor by both an outgoing and an incoming edge
// counts that neighbor twice.
func (e *Engine) MaxDegreeNodes(ctx context.Context) ([]RankedNode, error) {
	labels, err := e.store.AllNodeLabels(ctx)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}

	degrees := make(map[string]int64, len(labels))
	for id := range labels {
		degrees[id] = 0
	}

	out, err := e.store.OutNeighborCounts(ctx)
	if err != nil {
		return nil, err
	}
	for id, n := range out {
		if _, ok := degrees[id]; ok {
			degrees[id] += n
		}
	}

	in, err := e.store.InNeighborCounts(ctx)
	if err != nil {
		return nil, err
	}
	for id, n := range in {
		if _, ok := degrees[id]; ok {
			degrees[id] += n
		}
	}

	var max int64
	for _, d := range degrees {
		if d > max {
			max = d
		}
	}

	var ranked []RankedNode
	for id, d := range degrees {
		if d == max {
			ranked = append(ranked, RankedNode{ID: id, Label: labels[id], Degree: d})
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].ID < ranked[j].ID })
	return ranked, nil
}
