package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/cskg-labs/cskg/internal/store"
)

// memStore is an in-memory store.Store for engine tests. It mirrors the SQL
// implementations' semantics closely enough for traversal testing: edges are
// kept in insertion order and Rename applies its mutations atomically under
// a lock.
type memStore struct {
	mu    sync.Mutex
	nodes map[string]string
	edges []store.Edge
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{nodes: make(map[string]string)}
}

// addNode registers a node, deriving a label from the id when none is given.
func (m *memStore) addNode(id string, label ...string) {
	l := id
	if len(label) > 0 {
		l = label[0]
	}
	m.nodes[id] = l
}

func (m *memStore) addEdge(node1, relation, node2 string) {
	if _, ok := m.nodes[node1]; !ok {
		m.addNode(node1)
	}
	if _, ok := m.nodes[node2]; !ok {
		m.addNode(node2)
	}
	m.edges = append(m.edges, store.Edge{
		ID:            int64(len(m.edges)),
		Node1:         node1,
		Node2:         node2,
		Relation:      relation,
		RelationLabel: relation,
	})
}

func (m *memStore) GetNode(_ context.Context, id string) (*store.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	label, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return &store.Node{ID: id, Label: label}, nil
}

func (m *memStore) NodeExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok, nil
}

func (m *memStore) NodeLabels(_ context.Context, ids []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make(map[string]string, len(ids))
	for _, id := range ids {
		if label, ok := m.nodes[id]; ok {
			labels[id] = label
		}
	}
	return labels, nil
}

func (m *memStore) AllNodeLabels(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make(map[string]string, len(m.nodes))
	for id, label := range m.nodes {
		labels[id] = label
	}
	return labels, nil
}

func (m *memStore) EdgesFrom(_ context.Context, id string) ([]store.Edge, error) {
	return m.selectEdges(func(e store.Edge) bool { return e.Node1 == id }), nil
}

func (m *memStore) EdgesTo(_ context.Context, id string) ([]store.Edge, error) {
	return m.selectEdges(func(e store.Edge) bool { return e.Node2 == id }), nil
}

func (m *memStore) EdgesFromFiltered(_ context.Context, id string, relations []string) ([]store.Edge, error) {
	return m.selectEdges(func(e store.Edge) bool {
		return e.Node1 == id && inSet(relations, e.Relation)
	}), nil
}

func (m *memStore) EdgesToFiltered(_ context.Context, id string, relations []string) ([]store.Edge, error) {
	return m.selectEdges(func(e store.Edge) bool {
		return e.Node2 == id && inSet(relations, e.Relation)
	}), nil
}

func (m *memStore) CountNodes(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.nodes)), nil
}

func (m *memStore) CountEdgesFrom(ctx context.Context, id string) (int64, error) {
	edges, _ := m.EdgesFrom(ctx, id)
	return int64(len(edges)), nil
}

func (m *memStore) CountEdgesTo(ctx context.Context, id string) (int64, error) {
	edges, _ := m.EdgesTo(ctx, id)
	return int64(len(edges)), nil
}

func (m *memStore) CountNeighbors(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{})
	for _, e := range m.edges {
		if e.Node1 == id {
			set[e.Node2] = struct{}{}
		}
		if e.Node2 == id {
			set[e.Node1] = struct{}{}
		}
	}
	return int64(len(set)), nil
}

func (m *memStore) SourceCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hasOut := make(map[string]struct{})
	for _, e := range m.edges {
		hasOut[e.Node1] = struct{}{}
	}
	var n int64
	for id := range m.nodes {
		if _, ok := hasOut[id]; !ok {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SinkCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hasIn := make(map[string]struct{})
	for _, e := range m.edges {
		hasIn[e.Node2] = struct{}{}
	}
	var n int64
	for id := range m.nodes {
		if _, ok := hasIn[id]; !ok {
			n++
		}
	}
	return n, nil
}

func (m *memStore) OutNeighborCounts(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := make(map[string]map[string]struct{})
	for _, e := range m.edges {
		if sets[e.Node1] == nil {
			sets[e.Node1] = make(map[string]struct{})
		}
		sets[e.Node1][e.Node2] = struct{}{}
	}
	counts := make(map[string]int64, len(sets))
	for id, set := range sets {
		counts[id] = int64(len(set))
	}
	return counts, nil
}

func (m *memStore) InNeighborCounts(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := make(map[string]map[string]struct{})
	for _, e := range m.edges {
		if sets[e.Node2] == nil {
			sets[e.Node2] = make(map[string]struct{})
		}
		sets[e.Node2][e.Node1] = struct{}{}
	}
	counts := make(map[string]int64, len(sets))
	for id, set := range sets {
		counts[id] = int64(len(set))
	}
	return counts, nil
}

func (m *memStore) DegreeOneCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	occurrences := make(map[string]int)
	for _, e := range m.edges {
		occurrences[e.Node1]++
		occurrences[e.Node2]++
	}
	var n int64
	for _, c := range occurrences {
		if c == 1 {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpsertNodes(_ context.Context, nodes []store.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, node := range nodes {
		if existing, ok := m.nodes[node.ID]; !ok || len(node.Label) < len(existing) {
			m.nodes[node.ID] = node.Label
		}
	}
	return nil
}

func (m *memStore) UpsertEdges(_ context.Context, edges []store.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[int64]struct{}, len(m.edges))
	for _, e := range m.edges {
		existing[e.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		m.edges = append(m.edges, e)
		existing[e.ID] = struct{}{}
	}
	return nil
}

func (m *memStore) Rename(_ context.Context, fn func(store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		nodes: make(map[string]string, len(m.nodes)),
		edges: make([]store.Edge, len(m.edges)),
	}
	for id, label := range m.nodes {
		tx.nodes[id] = label
	}
	copy(tx.edges, m.edges)

	if err := fn(tx); err != nil {
		return err
	}
	m.nodes = tx.nodes
	m.edges = tx.edges
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) selectEdges(keep func(store.Edge) bool) []store.Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	var edges []store.Edge
	for _, e := range m.edges {
		if keep(e) {
			edges = append(edges, e)
		}
	}
	return edges
}

// memTx mutates a copy of the store state so a failing rename leaves the
// original untouched.
type memTx struct {
	nodes map[string]string
	edges []store.Edge
}

var _ store.Tx = (*memTx)(nil)

func (t *memTx) NodeExists(_ context.Context, id string) (bool, error) {
	_, ok := t.nodes[id]
	return ok, nil
}

func (t *memTx) InsertNode(_ context.Context, id, label string) error {
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("%w: %s", store.ErrConflict, id)
	}
	t.nodes[id] = label
	return nil
}

func (t *memTx) RedirectEdges(_ context.Context, oldID, newID string) error {
	for i := range t.edges {
		if t.edges[i].Node1 == oldID {
			t.edges[i].Node1 = newID
		}
		if t.edges[i].Node2 == oldID {
			t.edges[i].Node2 = newID
		}
	}
	return nil
}

func (t *memTx) DeleteNode(_ context.Context, id string) error {
	delete(t.nodes, id)
	return nil
}

func inSet(relations []string, relation string) bool {
	for _, r := range relations {
		if r == relation {
			return true
		}
	}
	return false
}
