package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang-storefront-backend/internal/repositories"
	"golang-storefront-backend/pkg/messaging"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CatalogLookup resolves a product identifier to its current catalog state.
type CatalogLookup interface {
	Resolve(ctx context.Context, productID string) (*ProductInfo, error)
}

// lineUpdateRetries bounds the conditional-update loop in AddToCart: a
// failed swap means a competing writer committed first, so the attempt
// count only grows with concurrent writers of the same line. Exceeding
// the budget surfaces as ErrStorage.
const lineUpdateRetries = 25

type CartService struct {
	cartRepo repositories.CartRepository
	catalog  CatalogLookup
	events   messaging.Publisher
}

func NewCartService(
	cartRepo repositories.CartRepository,
	catalog CatalogLookup,
	events messaging.Publisher,
) *CartService {
	return &CartService{
		cartRepo: cartRepo,
		catalog:  catalog,
		events:   events,
	}
}

// CartSnapshot is the display-ready view of a cart. It is rebuilt from the
// catalog on every read and never cached, so totals follow current prices.
type CartSnapshot struct {
	Lines []CartLineView `json:"lines"`
	Total float64        `json:"total"`
}

type CartLineView struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Available bool    `json:"available"`
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartSnapshot, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return s.buildSnapshot(ctx, cart.ID)
}

// AddToCart merges delta into the user's line for the product: an existing
// line grows by delta, a missing one is created with quantity delta. The
// write goes through a conditional update keyed on the quantity that was
// read, so concurrent adds for the same line never lose an update.
func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, productID string, delta int) (*CartSnapshot, error) {
	if delta < 1 {
		return nil, fmt.Errorf("%w: delta must be a positive integer, got %d", ErrInvalidQuantity, delta)
	}

	info, err := s.catalog.Resolve(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	for attempt := 0; attempt < lineUpdateRetries; attempt++ {
		current, err := s.cartRepo.GetLineQuantity(ctx, cart.ID, productID)
		if err != nil {
			return nil, storageError(err)
		}

		next := s.clampQuantity(current+delta, info)

		swapped, err := s.cartRepo.CompareAndSwapLine(ctx, cart.ID, productID, current, next)
		if err != nil {
			return nil, storageError(err)
		}
		if swapped {
			s.publishCartEvent(ctx, "item_added", userID, productID, next)
			return s.buildSnapshot(ctx, cart.ID)
		}
	}

	return nil, fmt.Errorf("%w: conflicting updates for product %s", ErrStorage, productID)
}

// SetQuantity overwrites the line's quantity. Zero removes the line, which
// also makes it usable to drop lines for since-deleted products, so there
// is no catalog existence check here.
func (s *CartService) SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) (*CartSnapshot, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be non-negative, got %d", ErrInvalidQuantity, quantity)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	if err := s.cartRepo.UpsertLine(ctx, cart.ID, productID, quantity); err != nil {
		return nil, storageError(err)
	}

	s.publishCartEvent(ctx, "quantity_set", userID, productID, quantity)
	return s.buildSnapshot(ctx, cart.ID)
}

// RemoveItem deletes the line unconditionally; removing an absent line
// succeeds and leaves the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID string) (*CartSnapshot, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	if err := s.cartRepo.DeleteLine(ctx, cart.ID, productID); err != nil {
		return nil, storageError(err)
	}

	s.publishCartEvent(ctx, "item_removed", userID, productID, 0)
	return s.buildSnapshot(ctx, cart.ID)
}

// clampQuantity bounds the quantity AddToCart is about to write. The
// catalog does not impose a per-line ceiling today, so the requested
// quantity passes through.
func (s *CartService) clampQuantity(quantity int, _ *ProductInfo) int {
	return quantity
}

func (s *CartService) buildSnapshot(ctx context.Context, cartID uuid.UUID) (*CartSnapshot, error) {
	lines, err := s.cartRepo.LoadLines(ctx, cartID)
	if err != nil {
		return nil, storageError(err)
	}

	// Catalog lookups are read-only and independent per line, so they fan
	// out concurrently; views is index-addressed to keep insertion order.
	views := make([]CartLineView, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			view := CartLineView{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			}

			info, err := s.catalog.Resolve(gctx, line.ProductID)
			if err != nil {
				// A line that no longer resolves degrades to unavailable
				// instead of failing the whole snapshot.
				if !errors.Is(err, ErrProductNotFound) {
					log.Printf("catalog lookup failed for product %s: %v", line.ProductID, err)
				}
				views[i] = view
				return nil
			}

			view.Name = info.Name
			if info.Available {
				view.UnitPrice = info.Price
				view.Subtotal = info.Price * float64(line.Quantity)
				view.Available = true
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total float64
	for _, view := range views {
		if view.Available {
			total += view.Subtotal
		}
	}

	return &CartSnapshot{Lines: views, Total: total}, nil
}

func (s *CartService) publishCartEvent(ctx context.Context, eventType string, userID uuid.UUID, productID string, quantity int) {
	event := messaging.CartEvent{
		Type:      eventType,
		UserID:    userID.String(),
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.events.Publish(ctx, messaging.CartEventsTopic, userID.String(), event); err != nil {
		log.Printf("failed to publish cart event %s for user %s: %v", eventType, userID, err)
	}
}
