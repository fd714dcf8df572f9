package cart

import (
	"go.uber.org/zap"

	"bazaar/internal/session"
)

// Selector hands out the cart backend matching the caller's identity. It
// holds the shared dependencies; every call builds a fresh backend bound to
// the current user or session.
type Selector struct {
	sessions *session.Store
	items    ItemsStore
	catalog  Catalog
	logger   *zap.SugaredLogger
}

func NewSelector(sessions *session.Store, items ItemsStore, catalog Catalog, logger *zap.SugaredLogger) *Selector {
	return &Selector{
		sessions: sessions,
		items:    items,
		catalog:  catalog,
		logger:   logger,
	}
}

// For returns the database cart when userID is set (authenticated caller)
// and the session cart otherwise.
func (s *Selector) For(userID int64, sid string) Backend {
	if userID != 0 {
		return NewDatabaseBackend(s.items, s.catalog, userID, s.logger)
	}
	return NewSessionBackend(s.sessions, s.catalog, sid, s.logger)
}
