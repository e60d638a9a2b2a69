// Package cart owns a device's shopping cart: an ordered list of line items
// persisted as one JSON document under the lu_cart key.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/storage"
)

const Key = "lu_cart"

type LineItem struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
	Qty   int     `json:"qty"`
}

// Quantity is the item's qty, reading anything below 1 as 1.
func (it LineItem) Quantity() int {
	if it.Qty < 1 {
		return 1
	}
	return it.Qty
}

func (it LineItem) Subtotal() float64 {
	return it.Price * float64(it.Quantity())
}

// Product is what callers hand to Add; only the display fields are kept.
type Product struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Image  string   `json:"image,omitempty"`
	Images []string `json:"images,omitempty"`
}

func (p Product) image() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}

type Store struct {
	bucket *storage.Bucket
	bus    *events.Bus
}

func NewStore(bucket *storage.Bucket, bus *events.Bus) *Store {
	return &Store{bucket: bucket, bus: bus}
}

// Load returns the persisted cart, or an empty one when nothing usable is stored.
func (s *Store) Load(ctx context.Context) []LineItem {
	raw, err := s.bucket.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("cart_load_failed", "scope", s.bucket.Scope(), "error", err)
		}
		return []LineItem{}
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []LineItem{}
	}
	return items
}

// Persist writes items. Storage failures are logged and otherwise ignored.
func (s *Store) Persist(ctx context.Context, items []LineItem) {
	if err := s.persist(ctx, items); err != nil {
		logging.FromContext(ctx).Error("cart_persist_failed", "scope", s.bucket.Scope(), "error", err)
	}
}

func (s *Store) persist(ctx context.Context, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.bucket.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) commit(ctx context.Context, items []LineItem) []LineItem {
	s.Persist(ctx, items)
	s.bus.Publish(ctx, events.TopicCart, s.bucket.Scope(), items)
	return items
}

// Add puts one unit of p in the cart. An existing line grows by exactly one
// whatever qty says; qty is kept so call sites can pass it.
func (s *Store) Add(ctx context.Context, p Product, qty int) []LineItem {
	_ = qty

	items := s.Load(ctx)
	for i := range items {
		if items[i].Code == p.Code {
			items[i].Qty = items[i].Quantity() + 1
			return s.commit(ctx, items)
		}
	}

	items = append(items, LineItem{
		Code:  p.Code,
		Name:  p.Name,
		Price: p.Price,
		Image: p.image(),
		Qty:   1,
	})
	return s.commit(ctx, items)
}

func (s *Store) Remove(ctx context.Context, code string) []LineItem {
	items := s.Load(ctx)
	kept := items[:0]
	for _, it := range items {
		if it.Code != code {
			kept = append(kept, it)
		}
	}
	return s.commit(ctx, kept)
}

// SetQty sets the quantity of the line with code. raw may be any number or
// numeric string; anything else, or a value below 1, becomes 1.
func (s *Store) SetQty(ctx context.Context, code string, raw any) []LineItem {
	q := ParseQty(raw)
	items := s.Load(ctx)
	for i := range items {
		if items[i].Code == code {
			items[i].Qty = q
		}
	}
	return s.commit(ctx, items)
}

func (s *Store) Clear(ctx context.Context) []LineItem {
	return s.commit(ctx, []LineItem{})
}
