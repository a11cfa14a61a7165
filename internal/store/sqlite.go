package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite graph store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// The pool would otherwise hand out fresh, empty in-memory databases.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for migrations and tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	n := &Node{}
	err := s.db.QueryRowContext(ctx,
		`SELECT node_id, node_label FROM nodes WHERE node_id = ?`, id,
	).Scan(&n.ID, &n.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) NodeExists(ctx context.Context, id string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("database not opened")
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM nodes WHERE node_id = ?`, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check node: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) NodeLabels(ctx context.Context, ids []string) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT node_id, node_label FROM nodes WHERE node_id IN (` + placeholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get node labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

func (s *SQLiteStore) AllNodeLabels(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT node_id, node_label FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list node labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

func (s *SQLiteStore) EdgesFrom(ctx context.Context, id string) ([]Edge, error) {
	return s.queryEdges(ctx,
		`SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node1_id = ? ORDER BY edge_id`, id)
}

func (s *SQLiteStore) EdgesTo(ctx context.Context, id string) ([]Edge, error) {
	return s.queryEdges(ctx,
		`SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node2_id = ? ORDER BY edge_id`, id)
}

func (s *SQLiteStore) EdgesFromFiltered(ctx context.Context, id string, relations []string) ([]Edge, error) {
	if len(relations) == 0 {
		return nil, nil
	}
	query := `SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node1_id = ? AND relation IN (` + placeholders(len(relations)) + `) ORDER BY edge_id`
	args := append([]any{id}, stringArgs(relations)...)
	return s.queryEdges(ctx, query, args...)
}

func (s *SQLiteStore) EdgesToFiltered(ctx context.Context, id string, relations []string) ([]Edge, error) {
	if len(relations) == 0 {
		return nil, nil
	}
	query := `SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node2_id = ? AND relation IN (` + placeholders(len(relations)) + `) ORDER BY edge_id`
	args := append([]any{id}, stringArgs(relations)...)
	return s.queryEdges(ctx, query, args...)
}

func (s *SQLiteStore) queryEdges(ctx context.Context, query string, args ...any) ([]Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.Node1, &e.Node2, &e.Relation, &e.RelationLabel); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *SQLiteStore) CountNodes(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes`)
}

func (s *SQLiteStore) CountEdgesFrom(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM edges WHERE node1_id = ?`, id)
}

func (s *SQLiteStore) CountEdgesTo(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM edges WHERE node2_id = ?`, id)
}

func (s *SQLiteStore) CountNeighbors(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM (
		SELECT node2_id AS node_id FROM edges WHERE node1_id = ?
		UNION
		SELECT node1_id AS node_id FROM edges WHERE node2_id = ?
	) t`, id, id)
}

func (s *SQLiteStore) SourceCount(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM edges e WHERE e.node1_id = n.node_id)`)
}

func (s *SQLiteStore) SinkCount(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM edges e WHERE e.node2_id = n.node_id)`)
}

func (s *SQLiteStore) DegreeOneCount(ctx context.Context) (int64, error) {
	// Endpoint occurrences, not distinct neighbors: parallel edges count.
	return s.countQuery(ctx, `SELECT COUNT(*) FROM (
		SELECT node_id FROM (
			SELECT node1_id AS node_id FROM edges
			UNION ALL
			SELECT node2_id AS node_id FROM edges
		) occ GROUP BY node_id HAVING COUNT(*) = 1
	) t`)
}

func (s *SQLiteStore) OutNeighborCounts(ctx context.Context) (map[string]int64, error) {
	return s.neighborCounts(ctx,
		`SELECT node1_id, COUNT(DISTINCT node2_id) FROM edges GROUP BY node1_id`)
}

func (s *SQLiteStore) InNeighborCounts(ctx context.Context) (map[string]int64, error) {
	return s.neighborCounts(ctx,
		`SELECT node2_id, COUNT(DISTINCT node1_id) FROM edges GROUP BY node2_id`)
}

func (s *SQLiteStore) neighborCounts(ctx context.Context, query string) (map[string]int64, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbor counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) countQuery(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) UpsertNodes(ctx context.Context, nodes []Node) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (node_id, node_label) VALUES (?, ?)
		 ON CONFLICT (node_id) DO UPDATE SET node_label = excluded.node_label
		 WHERE LENGTH(excluded.node_label) < LENGTH(nodes.node_label)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node upsert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Label); err != nil {
			return fmt.Errorf("failed to upsert node %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit node upserts: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertEdges(ctx context.Context, edges []Edge) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (edge_id, node1_id, node2_id, relation, relation_label)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (edge_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Node1, e.Node2, e.Relation, e.RelationLabel); err != nil {
			return fmt.Errorf("failed to upsert edge %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edge upserts: %w", err)
	}
	return nil
}

// Rename runs fn inside a serializable transaction. SQLite transactions are
// serializable by default.
func (s *SQLiteStore) Rename(ctx context.Context, fn func(Tx) error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) NodeExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE node_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check node: %w", err)
	}
	return true, nil
}

func (t *sqliteTx) InsertNode(ctx context.Context, id, label string) error {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO nodes (node_id, node_label) VALUES (?, ?)`, id, label); err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	return nil
}

func (t *sqliteTx) RedirectEdges(ctx context.Context, oldID, newID string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE edges SET node1_id = ? WHERE node1_id = ?`, newID, oldID); err != nil {
		return fmt.Errorf("failed to redirect outgoing edges: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE edges SET node2_id = ? WHERE node2_id = ?`, newID, oldID); err != nil {
		return fmt.Errorf("failed to redirect incoming edges: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteNode(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE node_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return nil
}

// placeholders returns n comma-separated "?" placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(vals []string) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}

func scanLabels(rows *sql.Rows) (map[string]string, error) {
	labels := make(map[string]string)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("failed to scan node label: %w", err)
		}
		labels[id] = label
	}
	return labels, rows.Err()
}

// Ensure SQLiteStore implements the Store interface.
var _ Store = (*SQLiteStore)(nil)
