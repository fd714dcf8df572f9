package cart

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"bazaar/internal/session"
	"bazaar/internal/store"
)

const sessionField = "cart"

// SessionBackend keeps the cart in the visitor's redis session as a mapping
// from product id to line. Mutations follow an explicit read-modify-save
// cycle against the session store; two concurrent requests for one session
// are last-writer-wins on the whole mapping.
type SessionBackend struct {
	sessions *session.Store
	catalog  Catalog
	sid      string
	logger   *zap.SugaredLogger
}

func NewSessionBackend(sessions *session.Store, catalog Catalog, sid string, logger *zap.SugaredLogger) *SessionBackend {
	return &SessionBackend{
		sessions: sessions,
		catalog:  catalog,
		sid:      sid,
		logger:   logger,
	}
}

func (b *SessionBackend) load(ctx context.Context) (map[int64]Line, error) {
	lines := make(map[int64]Line)
	if _, err := b.sessions.Get(ctx, b.sid, sessionField, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (b *SessionBackend) save(ctx context.Context, lines map[int64]Line) error {
	return b.sessions.Save(ctx, b.sid, sessionField, lines)
}

func countOf(lines map[int64]Line) int {
	var count int
	for _, l := range lines {
		count += l.Quantity
	}
	return count
}

func (b *SessionBackend) Add(ctx context.Context, product *store.Product) (AddResult, error) {
	lines, err := b.load(ctx)
	if err != nil {
		return AddResult{}, err
	}

	if line, ok := lines[product.ID]; ok {
		line.Quantity++
		lines[product.ID] = line
	} else {
		lines[product.ID] = Line{
			ProductID: product.ID,
			Quantity:  1,
			UnitPrice: product.Price,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
		}
	}

	if err := b.save(ctx, lines); err != nil {
		return AddResult{}, err
	}
	return AddResult{Count: countOf(lines)}, nil
}

func (b *SessionBackend) UpdateQuantity(ctx context.Context, productID int64, delta int) (UpdateResult, error) {
	lines, err := b.load(ctx)
	if err != nil {
		return UpdateResult{}, err
	}

	line, ok := lines[productID]
	if !ok {
		return UpdateResult{Count: countOf(lines)}, store.ErrNotFound
	}

	newQuantity := line.Quantity + delta
	if newQuantity <= 0 {
		delete(lines, productID)
		newQuantity = 0
	} else {
		line.Quantity = newQuantity
		lines[productID] = line
	}

	if err := b.save(ctx, lines); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Quantity: newQuantity, Count: countOf(lines)}, nil
}

func (b *SessionBackend) Remove(ctx context.Context, productID int64) (RemoveResult, error) {
	lines, err := b.load(ctx)
	if err != nil {
		return RemoveResult{}, err
	}

	if _, ok := lines[productID]; !ok {
		return RemoveResult{Removed: false, Count: countOf(lines)}, nil
	}

	delete(lines, productID)
	if err := b.save(ctx, lines); err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Removed: true, Count: countOf(lines)}, nil
}

// Items lists the cart with prices re-read from the catalog. Lines whose
// product no longer exists are dropped and the cleaned cart is saved back.
func (b *SessionBackend) Items(ctx context.Context) (*Summary, error) {
	lines, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}

	products, err := b.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	summary := &Summary{Lines: make([]Line, 0, len(lines))}
	dirty := false
	for id, line := range lines {
		product, ok := products[id]
		if !ok {
			b.logger.Warnw("dropping cart line for missing product", "product_id", id, "session_id", b.sid)
			delete(lines, id)
			dirty = true
			continue
		}
		if line.UnitPrice != product.Price || line.Name != product.Name {
			line.UnitPrice = product.Price
			line.Name = product.Name
			lines[id] = line
			dirty = true
		}
		summary.Lines = append(summary.Lines, line)
	}

	if dirty {
		if err := b.save(ctx, lines); err != nil {
			return nil, err
		}
	}

	sort.Slice(summary.Lines, func(i, j int) bool {
		return summary.Lines[i].ProductID < summary.Lines[j].ProductID
	})
	for _, line := range summary.Lines {
		summary.TotalPrice += line.LineTotal()
		summary.Count += line.Quantity
	}
	return summary, nil
}

func (b *SessionBackend) Count(ctx context.Context) (int, error) {
	lines, err := b.load(ctx)
	if err != nil {
		return 0, err
	}
	return countOf(lines), nil
}

func (b *SessionBackend) Clear(ctx context.Context) error {
	return b.sessions.Delete(ctx, b.sid, sessionField)
}
