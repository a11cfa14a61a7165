// Package store provides durable graph storage for CSKG nodes and edges.
// It defines the storage-agnostic Store interface consumed by the traversal
// engine, plus SQLite and Postgres implementations.
package store

import (
	"context"
	"errors"
)

// Node is a concept in the knowledge graph.
type Node struct {
	ID    string
	Label string
}

// Edge is a directed, typed relation between two nodes.
type Edge struct {
	ID            int64
	Node1         string
	Node2         string
	Relation      string
	RelationLabel string
}

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates a node that does not exist.
	ErrNotFound = errors.New("node not found")
	// ErrConflict indicates an insert that would collide with an existing node id.
	ErrConflict = errors.New("node id already exists")
)

// Store is the graph storage interface consumed by the traversal engine.
// All read methods are safe for concurrent use; Rename is the only mutator
// and executes its function inside a serializable transaction.
type Store interface {
	// GetNode returns the node with the given id, or ErrNotFound.
	GetNode(ctx context.Context, id string) (*Node, error)
	// NodeExists reports whether a node with the given id exists.
	NodeExists(ctx context.Context, id string) (bool, error)
	// NodeLabels returns the labels for the given node ids. Missing ids are
	// simply absent from the result.
	NodeLabels(ctx context.Context, ids []string) (map[string]string, error)
	// AllNodeLabels returns the labels of every node in the graph.
	AllNodeLabels(ctx context.Context) (map[string]string, error)

	// EdgesFrom returns all edges where id is node1, ordered by edge id.
	EdgesFrom(ctx context.Context, id string) ([]Edge, error)
	// EdgesTo returns all edges where id is node2, ordered by edge id.
	EdgesTo(ctx context.Context, id string) ([]Edge, error)
	// EdgesFromFiltered returns edges from id whose relation is in relations.
	EdgesFromFiltered(ctx context.Context, id string, relations []string) ([]Edge, error)
	// EdgesToFiltered returns edges to id whose relation is in relations.
	EdgesToFiltered(ctx context.Context, id string, relations []string) ([]Edge, error)

	// CountNodes returns the total number of nodes.
	CountNodes(ctx context.Context) (int64, error)
	// CountEdgesFrom returns the number of edges where id is node1.
	CountEdgesFrom(ctx context.Context, id string) (int64, error)
	// CountEdgesTo returns the number of edges where id is node2.
	CountEdgesTo(ctx context.Context, id string) (int64, error)
	// CountNeighbors returns the number of distinct neighbors of id,
	// irrespective of edge direction.
	CountNeighbors(ctx context.Context, id string) (int64, error)
	// SourceCount returns the number of nodes with no outgoing edges.
	SourceCount(ctx context.Context) (int64, error)
	// SinkCount returns the number of nodes with no incoming edges.
	SinkCount(ctx context.Context) (int64, error)
	// OutNeighborCounts returns, per node, the number of distinct nodes it
	// points to. Nodes without outgoing edges are absent.
	OutNeighborCounts(ctx context.Context) (map[string]int64, error)
	// InNeighborCounts returns, per node, the number of distinct nodes
	// pointing to it. Nodes without incoming edges are absent.
	InNeighborCounts(ctx context.Context) (map[string]int64, error)
	// DegreeOneCount returns the number of nodes that occur exactly once as
	// an edge endpoint, counting every occurrence (parallel edges included).
	DegreeOneCount(ctx context.Context) (int64, error)

	// UpsertNodes inserts nodes in bulk. On id conflict the shorter label wins.
	UpsertNodes(ctx context.Context, nodes []Node) error
	// UpsertEdges inserts edges in bulk. Edges whose id already exists are
	// skipped, making bulk loads idempotent.
	UpsertEdges(ctx context.Context, edges []Edge) error

	// Rename runs fn inside a single serializable transaction. If fn returns
	// an error the transaction is rolled back and no partial effect remains.
	Rename(ctx context.Context, fn func(Tx) error) error

	// Close releases the underlying database handle.
	Close() error
}

// Tx exposes the mutations available inside a Rename transaction.
type Tx interface {
	// NodeExists reports whether a node exists, seen from inside the transaction.
	NodeExists(ctx context.Context, id string) (bool, error)
	// InsertNode creates a node.
	InsertNode(ctx context.Context, id, label string) error
	// RedirectEdges rewrites every edge referencing oldID as node1 or node2
	// to reference newID instead.
	RedirectEdges(ctx context.Context, oldID, newID string) error
	// DeleteNode removes a node.
	DeleteNode(ctx context.Context, id string) error
}
