package favorites

import (
	"context"
	"fmt"
)

// SyncOnLogin folds the visitor's session favorites into the user's database
// favorites: a set union, applied as one conflict-ignoring bulk insert. Ids
// whose product has disappeared from the catalog are skipped and logged. The
// session set is cleared only after the bulk write succeeds and only when at
// least one id was carried over, so a failed sync leaves the session intact
// for a retry.
//
// Returns the number of ids carried into the database set (duplicates the
// user already had still count as carried; they were consumed by the union).
func (s *Selector) SyncOnLogin(ctx context.Context, sid string, userID int64) (int, error) {
	sess := NewSessionBackend(s.sessions, s.catalog, sid, s.logger)

	set, err := sess.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load session favorites: %w", err)
	}
	if len(set) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("resolve session favorites: %w", err)
	}

	keep := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			s.logger.Warnw("skipping favorites sync for missing product", "product_id", id, "user_id", userID)
			continue
		}
		keep = append(keep, id)
	}
	if len(keep) == 0 {
		return 0, nil
	}

	if _, err := s.set.BulkAdd(ctx, userID, keep); err != nil {
		return 0, fmt.Errorf("merge session favorites: %w", err)
	}

	if err := sess.Clear(ctx); err != nil {
		return len(keep), fmt.Errorf("clear session favorites after merge: %w", err)
	}

	s.logger.Infow("synced session favorites to database", "user_id", userID, "ids", len(keep))
	return len(keep), nil
}
