// Package graph implements the traversal and analytics engine for the
// knowledge graph: neighbor expansion, degree analytics, similarity
// discovery, bounded shortest-path search, signed synonym/antonym
// propagation, and the atomic node rename.
//
// All operations are read-only against the store except Merge, which runs
// inside a single store transaction. Traversals are expressed as explicit
// frontier/visited-set algorithms; the store only answers point lookups and
// aggregate counts.
package graph

import (
	"errors"
	"log/slog"

	"github.com/cskg-labs/cskg/internal/store"
)

// ErrInvalidArgument indicates a parameter outside the accepted domain,
// such as a non-positive search depth.
var ErrInvalidArgument = errors.New("invalid argument")

// Direction selects which edges count as neighbors.
type Direction string

const (
	// DirectionOut follows edges where the node is node1.
	DirectionOut Direction = "out"
	// DirectionIn follows edges where the node is node2.
	DirectionIn Direction = "in"
	// DirectionBoth follows edges in either direction, deduplicated by neighbor.
	DirectionBoth Direction = "both"
)

// Relation codes with special traversal semantics.
const (
	RelationSynonym = "/r/Synonym"
	RelationAntonym = "/r/Antonym"
)

// DefaultPathRelations is the relation whitelist used by shortest-path
// search when the caller does not supply one.
var DefaultPathRelations = []string{
	"/r/RelatedTo", "/r/IsA", "/r/PartOf",
	"/r/HasA", "/r/UsedFor", "/r/CapableOf", "/r/AtLocation",
}

// Engine runs traversal and analytics operations against a graph store.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

// New creates an engine backed by the given store.
func New(st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: st, logger: logger}
}
