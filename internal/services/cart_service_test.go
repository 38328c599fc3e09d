package services

import (
	"context"
	"sync"
	"testing"

	"golang-storefront-backend/internal/models"
	"golang-storefront-backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// memCartRepo is an in-memory CartRepository with the same atomicity
// guarantees as the Postgres implementation: every line operation runs
// under one lock, and CompareAndSwapLine only writes when the stored
// quantity matches the expected one.
type memCartRepo struct {
	mu      sync.Mutex
	carts   map[uuid.UUID]uuid.UUID       // userID -> cartID
	lines   map[uuid.UUID][]models.CartLine // cartID -> lines in insertion order
	casFail bool
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		carts: make(map[uuid.UUID]uuid.UUID),
		lines: make(map[uuid.UUID][]models.CartLine),
	}
}

func (m *memCartRepo) GetOrCreate(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cartID, ok := m.carts[userID]
	if !ok {
		cartID = uuid.New()
		m.carts[userID] = cartID
	}
	return &models.Cart{ID: cartID, UserID: userID}, nil
}

func (m *memCartRepo) LoadLines(_ context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]models.CartLine, len(m.lines[cartID]))
	copy(lines, m.lines[cartID])
	return lines, nil
}

func (m *memCartRepo) GetLineQuantity(_ context.Context, cartID uuid.UUID, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines[cartID] {
		if line.ProductID == productID {
			return line.Quantity, nil
		}
	}
	return 0, nil
}

func (m *memCartRepo) UpsertLine(_ context.Context, cartID uuid.UUID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quantity == 0 {
		m.removeLocked(cartID, productID)
		return nil
	}
	for i, line := range m.lines[cartID] {
		if line.ProductID == productID {
			m.lines[cartID][i].Quantity = quantity
			return nil
		}
	}
	m.lines[cartID] = append(m.lines[cartID], models.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return nil
}

func (m *memCartRepo) CompareAndSwapLine(_ context.Context, cartID uuid.UUID, productID string, expected, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casFail {
		return false, nil
	}
	current := 0
	for _, line := range m.lines[cartID] {
		if line.ProductID == productID {
			current = line.Quantity
			break
		}
	}
	if current != expected {
		return false, nil
	}
	if quantity == 0 {
		m.removeLocked(cartID, productID)
		return true, nil
	}
	for i, line := range m.lines[cartID] {
		if line.ProductID == productID {
			m.lines[cartID][i].Quantity = quantity
			return true, nil
		}
	}
	m.lines[cartID] = append(m.lines[cartID], models.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return true, nil
}

func (m *memCartRepo) DeleteLine(_ context.Context, cartID uuid.UUID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(cartID, productID)
	return nil
}

func (m *memCartRepo) removeLocked(cartID uuid.UUID, productID string) {
	for i, line := range m.lines[cartID] {
		if line.ProductID == productID {
			m.lines[cartID] = append(m.lines[cartID][:i], m.lines[cartID][i+1:]...)
			return
		}
	}
}

var _ repositories.CartRepository = (*memCartRepo)(nil)

type memCatalog struct {
	mu       sync.Mutex
	products map[string]ProductInfo
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: make(map[string]ProductInfo)}
}

func (m *memCatalog) add(productID, name string, price float64, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID] = ProductInfo{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Available: available,
	}
}

func (m *memCatalog) remove(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
}

func (m *memCatalog) Resolve(_ context.Context, productID string) (*ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &info, nil
}

type memPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (m *memPublisher) Publish(_ context.Context, topic, _ string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	return nil
}

func (m *memPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics)
}

func newTestCartService() (*CartService, *memCartRepo, *memCatalog, *memPublisher) {
	repo := newMemCartRepo()
	catalog := newMemCatalog()
	events := &memPublisher{}
	return NewCartService(repo, catalog, events), repo, catalog, events
}

func TestGetCart_EmptyCartHasZeroTotal(t *testing.T) {
	svc, _, _, _ := newTestCartService()

	snapshot, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Empty(t, snapshot.Lines)
	assert.Equal(t, 0.0, snapshot.Total)
}

func TestAddToCart_CreatesLine(t *testing.T) {
	svc, _, catalog, events := newTestCartService()
	catalog.add("widget", "Widget", 9.99, true)

	snapshot, err := svc.AddToCart(context.Background(), uuid.New(), "widget", 3)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	line := snapshot.Lines[0]
	assert.Equal(t, "widget", line.ProductID)
	assert.Equal(t, "Widget", line.Name)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 9.99, line.UnitPrice)
	assert.InDelta(t, 3*9.99, line.Subtotal, 1e-9)
	assert.True(t, line.Available)
	assert.InDelta(t, 3*9.99, snapshot.Total, 1e-9)
	assert.Equal(t, 1, events.count())
}

func TestAddToCart_MergesIntoExistingLine(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 2.50, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 2)
	require.NoError(t, err)

	snapshot, err := svc.AddToCart(context.Background(), userID, "widget", 3)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1, "merge-add must not create a duplicate line")
	assert.Equal(t, 5, snapshot.Lines[0].Quantity)
}

func TestAddToCart_RejectsNonPositiveDelta(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 2.50, true)
	userID := uuid.New()

	for _, delta := range []int{0, -1} {
		_, err := svc.AddToCart(context.Background(), userID, "widget", delta)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines, "rejected adds must leave the cart unchanged")
}

func TestAddToCart_RejectsUnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestCartService()
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
}

func TestAddToCart_ContentionBudgetExhausted(t *testing.T) {
	svc, repo, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 1.00, true)
	repo.casFail = true

	_, err := svc.AddToCart(context.Background(), uuid.New(), "widget", 1)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestSetQuantity_Overwrites(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 4.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 3)
	require.NoError(t, err)

	snapshot, err := svc.SetQuantity(context.Background(), userID, "widget", 5)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, 5, snapshot.Lines[0].Quantity, "set must overwrite, not merge")
}

func TestSetQuantity_ZeroEqualsRemove(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 4.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 2)
	require.NoError(t, err)

	snapshot, err := svc.SetQuantity(context.Background(), userID, "widget", 0)
	require.NoError(t, err)

	assert.Empty(t, snapshot.Lines)
	assert.Equal(t, 0.0, snapshot.Total)
}

func TestSetQuantity_RejectsNegative(t *testing.T) {
	svc, _, _, _ := newTestCartService()

	_, err := svc.SetQuantity(context.Background(), uuid.New(), "widget", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetQuantity_NoCatalogCheck(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 4.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 2)
	require.NoError(t, err)

	// Product disappears from the catalog; the line must still be
	// removable through SetQuantity.
	catalog.remove("widget")

	snapshot, err := svc.SetQuantity(context.Background(), userID, "widget", 0)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
}

func TestRemoveItem_AbsentLineIsNoOp(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 4.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 2)
	require.NoError(t, err)

	snapshot, err := svc.RemoveItem(context.Background(), userID, "never-added")
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, 2, snapshot.Lines[0].Quantity)
}

func TestGetCart_UnavailableLineExcludedFromTotal(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 10.00, true)
	catalog.add("gadget", "Gadget", 5.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(context.Background(), userID, "gadget", 2)
	require.NoError(t, err)

	// The gadget is dropped from the catalog between writes and the read.
	catalog.remove("gadget")

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 2, "unavailable lines stay visible for display")
	assert.True(t, snapshot.Lines[0].Available)
	assert.False(t, snapshot.Lines[1].Available)
	assert.Equal(t, 0.0, snapshot.Lines[1].Subtotal)
	assert.InDelta(t, 10.00, snapshot.Total, 1e-9)
}

func TestGetCart_OutOfStockProductIsUnavailable(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 10.00, true)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, "widget", 1)
	require.NoError(t, err)

	catalog.add("widget", "Widget", 10.00, false)

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	assert.False(t, snapshot.Lines[0].Available)
	assert.Equal(t, 0.0, snapshot.Total)
}

func TestGetCart_PreservesInsertionOrder(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("first", "First", 1.00, true)
	catalog.add("second", "Second", 2.00, true)
	catalog.add("third", "Third", 3.00, true)
	userID := uuid.New()

	for _, id := range []string{"first", "second", "third"} {
		_, err := svc.AddToCart(context.Background(), userID, id, 1)
		require.NoError(t, err)
	}

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 3)
	assert.Equal(t, "first", snapshot.Lines[0].ProductID)
	assert.Equal(t, "second", snapshot.Lines[1].ProductID)
	assert.Equal(t, "third", snapshot.Lines[2].ProductID)
}

func TestAddToCart_ConcurrentAddsLoseNoUpdates(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 1.00, true)
	userID := uuid.New()

	// Kept below the line-update retry budget so a worst-case interleaving
	// cannot exhaust it.
	const n = 20
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.AddToCart(ctx, userID, "widget", 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, n, snapshot.Lines[0].Quantity)
}

func TestCart_FullScenario(t *testing.T) {
	svc, _, catalog, _ := newTestCartService()
	catalog.add("widget", "Widget", 7.00, true)
	userID := uuid.New()

	snapshot, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)

	snapshot, err = svc.AddToCart(context.Background(), userID, "widget", 3)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, 3, snapshot.Lines[0].Quantity)
	assert.InDelta(t, 21.00, snapshot.Lines[0].Subtotal, 1e-9)

	snapshot, err = svc.SetQuantity(context.Background(), userID, "widget", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.Lines[0].Quantity)

	snapshot, err = svc.RemoveItem(context.Background(), userID, "widget")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
	assert.Equal(t, 0.0, snapshot.Total)
}
