// Package catalog serves product listings read from the LevelUp API,
// optionally backed by an Elasticsearch index for free-text search.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

type Product = apiclient.Product

// AllCategories matches every product.
const AllCategories = "all"

type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, code string) (*Product, error)
}

type Searcher interface {
	Search(ctx context.Context, f Filter, from, size int) (int64, []Product, error)
}

type Filter struct {
	Query    string
	Category string
	Page     int
	Size     int
}

func (f Filter) query() string { return strings.TrimSpace(f.Query) }

func (f Filter) category() string {
	c := strings.TrimSpace(f.Category)
	if strings.EqualFold(c, AllCategories) {
		return ""
	}
	return c
}

func (f Filter) Match(p Product) bool {
	if q := f.query(); q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
		return false
	}
	if c := f.category(); c != "" && p.Category != c {
		return false
	}
	return true
}

// Apply keeps the products matching f, in catalog order.
func Apply(products []Product, f Filter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

type Listing struct {
	Total    int64     `json:"total"`
	Products []Product `json:"products"`
}

type Service struct {
	source   Source
	searcher Searcher
}

// NewService builds a catalog over source. searcher may be nil.
func NewService(source Source, searcher Searcher) *Service {
	return &Service{source: source, searcher: searcher}
}

// List returns one page of products matching f. Free-text queries go to the
// search index when there is one; if it fails the API listing is filtered
// in process instead.
func (s *Service) List(ctx context.Context, f Filter) (Listing, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")
	from, size := Page(f.Page, f.Size)

	if s.searcher != nil && f.query() != "" {
		total, items, err := s.searcher.Search(ctx, f, from, size)
		if err == nil {
			return Listing{Total: total, Products: items}, nil
		}
		l.Warn("search_failed", "error", err)
	}

	all, err := s.source.Products(ctx)
	if err != nil {
		l.Error("products_fetch_failed", "error", err)
		return Listing{}, fmt.Errorf("list products: %w", err)
	}
	matched := Apply(all, f)
	return Listing{Total: int64(len(matched)), Products: paginate(matched, from, size)}, nil
}

func (s *Service) Get(ctx context.Context, code string) (*Product, error) {
	p, err := s.source.Product(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get product %q: %w", code, err)
	}
	return p, nil
}

// Categories lists the distinct categories in catalog order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	all, err := s.source.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range all {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out, nil
}
