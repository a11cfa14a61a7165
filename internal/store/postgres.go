package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
)

// PostgresStore implements Store using PostgreSQL via pgx.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres graph store instance.
func NewPostgresStore(logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresStore{logger: logger}
}

// Open opens a connection pool to the Postgres database.
func (s *PostgresStore) Open(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the Postgres connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for migrations and tests.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetNode(ctx context.Context, id string) (*Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	n := &Node{}
	err := s.db.QueryRowContext(ctx,
		`SELECT node_id, node_label FROM nodes WHERE node_id = $1`, id,
	).Scan(&n.ID, &n.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) NodeExists(ctx context.Context, id string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("database not opened")
	}

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE node_id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check node: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) NodeLabels(ctx context.Context, ids []string) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT node_id, node_label FROM nodes WHERE node_id IN (` + pgPlaceholders(1, len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get node labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

func (s *PostgresStore) AllNodeLabels(ctx context.Context) (map[string]string, error) {
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

func (s *PostgresStore) EdgesFrom(ctx context.Context, id string) ([]Edge, error) {
	return s.queryEdges(ctx,
		`SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node1_id = $1 ORDER BY edge_id`, id)
}

func (s *PostgresStore) EdgesTo(ctx context.Context, id string) ([]Edge, error) {
	return s.queryEdges(ctx,
		`SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node2_id = $1 ORDER BY edge_id`, id)
}

func (s *PostgresStore) EdgesFromFiltered(ctx context.Context, id string, relations []string) ([]Edge, error) {
	if len(relations) == 0 {
		return nil, nil
	}
	query := `SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node1_id = $1 AND relation IN (` + pgPlaceholders(2, len(relations)) + `) ORDER BY edge_id`
	args := append([]any{id}, stringArgs(relations)...)
	return s.queryEdges(ctx, query, args...)
}

func (s *PostgresStore) EdgesToFiltered(ctx context.Context, id string, relations []string) ([]Edge, error) {
	if len(relations) == 0 {
		return nil, nil
	}
	query := `SELECT edge_id, node1_id, node2_id, relation, relation_label
		 FROM edges WHERE node2_id = $1 AND relation IN (` + pgPlaceholders(2, len(relations)) + `) ORDER BY edge_id`
	args := append([]any{id}, stringArgs(relations)...)
	return s.queryEdges(ctx, query, args...)
}

func (s *PostgresStore) queryEdges(ctx context.Context, query string, args ...any) ([]Edge, error) {
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

func (s *PostgresStore) CountNodes(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes`)
}

func (s *PostgresStore) CountEdgesFrom(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM edges WHERE node1_id = $1`, id)
}

func (s *PostgresStore) CountEdgesTo(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM edges WHERE node2_id = $1`, id)
}

func (s *PostgresStore) CountNeighbors(ctx context.Context, id string) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM (
		SELECT node2_id AS node_id FROM edges WHERE node1_id = $1
		UNION
		SELECT node1_id AS node_id FROM edges WHERE node2_id = $2
	) t`, id, id)
}

func (s *PostgresStore) SourceCount(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM edges e WHERE e.node1_id = n.node_id)`)
}

func (s *PostgresStore) SinkCount(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM edges e WHERE e.node2_id = n.node_id)`)
}

func (s *PostgresStore) DegreeOneCount(ctx context.Context) (int64, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM (
		SELECT node_id FROM (
			SELECT node1_id AS node_id FROM edges
			UNION ALL
			SELECT node2_id AS node_id FROM edges
		) occ GROUP BY node_id HAVING COUNT(*) = 1
	) t`)
}

func (s *PostgresStore) OutNeighborCounts(ctx context.Context) (map[string]int64, error) {
	return s.neighborCounts(ctx,
		`SELECT node1_id, COUNT(DISTINCT node2_id) FROM edges GROUP BY node1_id`)
}

func (s *PostgresStore) InNeighborCounts(ctx context.Context) (map[string]int64, error) {
	return s.neighborCounts(ctx,
		`SELECT node2_id, COUNT(DISTINCT node1_id) FROM edges GROUP BY node2_id`)
}

func (s *PostgresStore) neighborCounts(ctx context.Context, query string) (map[string]int64, error) {
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

func (s *PostgresStore) countQuery(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) UpsertNodes(ctx context.Context, nodes []Node) error {
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
		`INSERT INTO nodes (node_id, node_label) VALUES ($1, $2)
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

func (s *PostgresStore) UpsertEdges(ctx context.Context, edges []Edge) error {
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
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (edge_id) DO NOTHING`)
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

// Rename runs fn inside a serializable transaction.
func (s *PostgresStore) Rename(ctx context.Context, fn func(Tx) error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
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

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) NodeExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE node_id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check node: %w", err)
	}
	return true, nil
}

func (t *postgresTx) InsertNode(ctx context.Context, id, label string) error {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO nodes (node_id, node_label) VALUES ($1, $2)`, id, label); err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	return nil
}

func (t *postgresTx) RedirectEdges(ctx context.Context, oldID, newID string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE edges SET node1_id = $1 WHERE node1_id = $2`, newID, oldID); err != nil {
		return fmt.Errorf("failed to redirect outgoing edges: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE edges SET node2_id = $1 WHERE node2_id = $2`, newID, oldID); err != nil {
		return fmt.Errorf("failed to redirect incoming edges: %w", err)
	}
	return nil
}

func (t *postgresTx) DeleteNode(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE node_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return nil
}

// pgPlaceholders returns n comma-separated $k placeholders starting at $start.
func pgPlaceholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

// Ensure PostgresStore implements the Store interface.
var _ Store = (*PostgresStore)(nil)
