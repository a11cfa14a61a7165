package graph

import (
	"context"
	"fmt"

	"github.com/cskg-labs/cskg/internal/store"
)

// Merge renames oldID to a new identity with newID and newLabel, redirecting
// every edge endpoint, inside a single serializable transaction. Returns
// store.ErrConflict when newID already exists and store.ErrNotFound when
// oldID does not; either way the graph is unchanged.
func (e *Engine) Merge(ctx context.Context, oldID, newID, newLabel string) error {
	if oldID == newID {
		return fmt.Errorf("%w: node %q already has the requested id", store.ErrConflict, newID)
	}

	err := e.store.Rename(ctx, func(tx store.Tx) error {
		exists, err := tx.NodeExists(ctx, newID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: node %q already exists", store.ErrConflict, newID)
		}

		exists, err = tx.NodeExists(ctx, oldID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: node %q", store.ErrNotFound, oldID)
		}

		if err := tx.InsertNode(ctx, newID, newLabel); err != nil {
			return err
		}
		if err := tx.RedirectEdges(ctx, oldID, newID); err != nil {
			return err
		}
		return tx.DeleteNode(ctx, oldID)
	})
	if err != nil {
		return err
	}

	e.logger.Info("node renamed", "old_id", oldID, "new_id", newID)
	return nil
}
