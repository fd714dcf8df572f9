package favorites

import (
	"go.uber.org/zap"

	"bazaar/internal/session"
)

// Selector hands out the favorites backend matching the caller's identity;
// every call builds a fresh backend bound to the current user or session.
type Selector struct {
	sessions *session.Store
	set      SetStore
	catalog  Catalog
	logger   *zap.SugaredLogger
}

func NewSelector(sessions *session.Store, set SetStore, catalog Catalog, logger *zap.SugaredLogger) *Selector {
	return &Selector{
		sessions: sessions,
		set:      set,
		catalog:  catalog,
		logger:   logger,
	}
}

// For returns the database favorites when userID is set (authenticated
// caller) and the session favorites otherwise.
func (s *Selector) For(userID int64, sid string) Backend {
	if userID != 0 {
		return NewDatabaseBackend(s.set, s.catalog, userID, s.logger)
	}
	return NewSessionBackend(s.sessions, s.catalog, sid, s.logger)
}
