package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"
)

func NewESClient(ctx context.Context, log *slog.Logger, url, user, password string) (*elasticsearch.Client, error) {
	log.Info("es_connecting", "url", url, "user", user)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Error("es_info_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	log.Info("es_connected")
	return client, nil
}

type ESSearcher struct {
	es    *elasticsearch.Client
	index string
}

func NewESSearcher(es *elasticsearch.Client, index string) *ESSearcher {
	return &ESSearcher{es: es, index: index}
}

func searchBody(f Filter, from, size int) map[string]any {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     f.query(),
			"fields":    []string{"name^2", "description"},
			"fuzziness": "AUTO",
		},
	}
	boolQuery := map[string]any{"must": must}
	if c := f.category(); c != "" {
		boolQuery["filter"] = []any{
			map[string]any{"match": map[string]any{"categoria": c}},
		}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
	}
}

func (s *ESSearcher) Search(ctx context.Context, f Filter, from, size int) (int64, []Product, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(f, from, size)); err != nil {
		return 0, nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	prods := make([]Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}

// Index writes products into the index keyed by product code.
func (s *ESSearcher) Index(ctx context.Context, products []Product) error {
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %q: %w", p.Code, err)
		}
		res, err := s.es.Index(
			s.index,
			bytes.NewReader(data),
			s.es.Index.WithContext(ctx),
			s.es.Index.WithDocumentID(p.Code),
		)
		if err != nil {
			return fmt.Errorf("index product %q: %w", p.Code, err)
		}
		status := res.Status()
		failed := res.IsError()
		res.Body.Close()
		if failed {
			return fmt.Errorf("index product %q: %s", p.Code, status)
		}
	}
	return nil
}

// Sync copies the whole API catalog into the index.
func (s *ESSearcher) Sync(ctx context.Context, source Source) (int, error) {
	products, err := source.Products(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := s.Index(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}
