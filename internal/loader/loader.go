// Package loader imports CSKG assertion dumps into a graph store. The dump
// format is tab-separated with a header row; each data row carries the edge
// endpoints, the relation, and display labels for all three.
package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cskg-labs/cskg/internal/store"
)

// DefaultBatchSize is the number of rows accumulated before a batch is
// flushed to the store.
const DefaultBatchSize = 1000

// Column positions within a dump row. Column 0 holds the assertion id,
// which the graph does not keep.
const (
	colNode1         = 1
	colRelation      = 2
	colNode2         = 3
	colNode1Label    = 4
	colNode2Label    = 5
	colRelationLabel = 6
	minColumns       = 7
)

// progressInterval controls how often row progress is logged.
const progressInterval = 100_000

// Summary reports the outcome of a bulk load.
type Summary struct {
	RunID   string        `json:"run_id"`
	Rows    int64         `json:"rows"`
	Edges   int64         `json:"edges"`
	Skipped int64         `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
}

// Loader streams dump rows into a store in batches. Parsing and writing run
// concurrently: the reader goroutine accumulates batches while the writer
// goroutine flushes them.
type Loader struct {
	store     store.Store
	logger    *slog.Logger
	batchSize int
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize overrides the flush threshold. Non-positive values keep the
// default.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// New creates a loader writing into st.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loader{store: st, logger: logger, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// batch is one unit of work handed from the parser to the writer.
type batch struct {
	nodes []store.Node
	edges []store.Edge
}

// LoadFile imports the dump at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load imports a dump from r. The first row is treated as a header and
// skipped. Malformed rows are counted and dropped, never fatal. Edge ids are
// assigned sequentially from zero in row order, so reloading the same dump
// is idempotent.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	l.logger.Info("bulk load started", "run_id", runID, "batch_size", l.batchSize)

	batches := make(chan batch, 4)
	summary := &Summary{RunID: runID}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		return l.parse(ctx, r, batches, summary)
	})

	g.Go(func() error {
		for b := range batches {
			if err := l.store.UpsertNodes(ctx, b.nodes); err != nil {
				return fmt.Errorf("upsert nodes: %w", err)
			}
			if err := l.store.UpsertEdges(ctx, b.edges); err != nil {
				return fmt.Errorf("upsert edges: %w", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Elapsed = time.Since(start)
	l.logger.Info("bulk load finished",
		"run_id", runID,
		"rows", summary.Rows,
		"edges", summary.Edges,
		"skipped", summary.Skipped,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

func (l *Loader) parse(ctx context.Context, r io.Reader, batches chan<- batch, summary *Summary) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Node labels are deduplicated per batch; the store's upsert keeps the
	// shorter label on conflict, so the same rule applies here.
	nodes := make(map[string]string, l.batchSize*2)
	edges := make([]store.Edge, 0, l.batchSize)

	flush := func() error {
		if len(edges) == 0 && len(nodes) == 0 {
			return nil
		}
		b := batch{
			nodes: make([]store.Node, 0, len(nodes)),
			edges: edges,
		}
		for id, label := range nodes {
			b.nodes = append(b.nodes, store.Node{ID: id, Label: label})
		}
		select {
		case batches <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
		nodes = make(map[string]string, l.batchSize*2)
		edges = make([]store.Edge, 0, l.batchSize)
		return nil
	}

	record := func(id, label string) {
		if existing, ok := nodes[id]; !ok || len(label) < len(existing) {
			nodes[id] = label
		}
	}

	var (
		header = true
		edgeID int64
		rows   int64
	)
	for scanner.Scan() {
		line := scanner.Text()
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		rows++

		fields := strings.Split(line, "\t")
		if len(fields) < minColumns || fields[colNode1] == "" || fields[colNode2] == "" {
			summary.Skipped++
			continue
		}

		record(fields[colNode1], fields[colNode1Label])
		record(fields[colNode2], fields[colNode2Label])
		edges = append(edges, store.Edge{
			ID:            edgeID,
			Node1:         fields[colNode1],
			Node2:         fields[colNode2],
			Relation:      fields[colRelation],
			RelationLabel: fields[colRelationLabel],
		})
		edgeID++

		if len(edges) >= l.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if rows%progressInterval == 0 {
			l.logger.Info("bulk load progress", "rows", rows, "edges", edgeID)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	summary.Rows = rows
	summary.Edges = edgeID
	return nil
}
