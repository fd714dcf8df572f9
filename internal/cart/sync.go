package cart

import (
	"context"
	"fmt"

	"bazaar/internal/store"
)

// SyncOnLogin folds the visitor's session cart into the user's database cart.
// It runs exactly once per login, immediately after authentication succeeds.
//
// Session lines whose product has disappeared from the catalog are skipped
// and logged, never fatal. The surviving lines are applied in one bulk
// statement that creates new rows and sums quantities on collision. The
// session cart is cleared only after that write succeeds and only when at
// least one line was merged, so a failed merge leaves the session intact for
// a retry.
//
// Returns the number of merged lines.
func (s *Selector) SyncOnLogin(ctx context.Context, sid string, userID int64) (int, error) {
	sess := NewSessionBackend(s.sessions, s.catalog, sid, s.logger)

	lines, err := sess.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load session cart: %w", err)
	}
	if len(lines) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}

	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("resolve session cart products: %w", err)
	}

	merge := make([]store.MergeLine, 0, len(lines))
	for id, line := range lines {
		if _, ok := products[id]; !ok {
			s.logger.Warnw("skipping cart sync for missing product", "product_id", id, "user_id", userID)
			continue
		}
		merge = append(merge, store.MergeLine{ProductID: id, Quantity: line.Quantity})
	}
	if len(merge) == 0 {
		return 0, nil
	}

	if err := s.items.MergeLines(ctx, userID, merge); err != nil {
		return 0, fmt.Errorf("merge session cart: %w", err)
	}

	if err := sess.Clear(ctx); err != nil {
		// The merge landed; a stale session cart would double-count on the
		// next login, so this failure is surfaced rather than swallowed.
		return len(merge), fmt.Errorf("clear session cart after merge: %w", err)
	}

	s.logger.Infow("synced session cart to database", "user_id", userID, "lines", len(merge))
	return len(merge), nil
}
