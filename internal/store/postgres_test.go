package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewPostgresStore(nil)
	s.db = db
	return s, mock
}

func TestPostgresGetNode(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT node_id, node_label FROM nodes WHERE node_id = $1`)).
		WithArgs("/c/en/cat").
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "node_label"}).AddRow("/c/en/cat", "cat"))

	node, err := s.GetNode(context.Background(), "/c/en/cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", node.Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNodeNotFound(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT node_id, node_label FROM nodes WHERE node_id = $1`)).
		WithArgs("/c/en/ghost").
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "node_label"}))

	_, err := s.GetNode(context.Background(), "/c/en/ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenameRollsBackOnRedirectFailure(t *testing.T) {
	s, mock := setupMockStore(t)
	ctx := context.Background()

	boom := errors.New("redirect failed")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO nodes (node_id, node_label) VALUES ($1, $2)`)).
		WithArgs("/c/en/new", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE edges SET node1_id = $1 WHERE node1_id = $2`)).
		WithArgs("/c/en/new", "/c/en/old").
		WillReturnError(boom)
	mock.ExpectRollback()

	err := s.Rename(ctx, func(tx Tx) error {
		if err := tx.InsertNode(ctx, "/c/en/new", "new"); err != nil {
			return err
		}
		return tx.RedirectEdges(ctx, "/c/en/old", "/c/en/new")
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRenameCommits(t *testing.T) {
	s, mock := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO nodes (node_id, node_label) VALUES ($1, $2)`)).
		WithArgs("/c/en/new", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE edges SET node1_id = $1 WHERE node1_id = $2`)).
		WithArgs("/c/en/new", "/c/en/old").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE edges SET node2_id = $1 WHERE node2_id = $2`)).
		WithArgs("/c/en/new", "/c/en/old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM nodes WHERE node_id = $1`)).
		WithArgs("/c/en/old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Rename(ctx, func(tx Tx) error {
		if err := tx.InsertNode(ctx, "/c/en/new", "new"); err != nil {
			return err
		}
		if err := tx.RedirectEdges(ctx, "/c/en/old", "/c/en/new"); err != nil {
			return err
		}
		return tx.DeleteNode(ctx, "/c/en/old")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
