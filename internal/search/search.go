// Package search mirrors the catalog into an Elasticsearch index and runs
// full-text queries against it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "keyword"},
      "condition":   {"type": "keyword"},
      "sellerId":    {"type": "keyword"},
      "datePosted":  {"type": "date"}
    }
  }
}`

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewClient(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

// Ping checks the cluster answers before the index is used.
func (ix *Index) Ping(ctx context.Context) error {
	res, err := ix.ES.Info(ix.ES.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	return responseError("info", res)
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	res, err := ix.ES.Indices.Exists([]string{ix.Name}, ix.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = ix.ES.Indices.Create(ix.Name,
		ix.ES.Indices.Create.WithContext(ctx),
		ix.ES.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	return responseError("create index", res)
}

func (ix *Index) Put(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product %s: %w", p.ID, err)
	}
	res, err := ix.ES.Index(ix.Name, bytes.NewReader(body),
		ix.ES.Index.WithContext(ctx),
		ix.ES.Index.WithDocumentID(p.ID),
	)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	return responseError("index product", res)
}

// Remove deletes the document; a document that is already gone is not an error.
func (ix *Index) Remove(ctx context.Context, id string) error {
	res, err := ix.ES.Delete(ix.Name, id, ix.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil
	}
	return responseError("delete product", res)
}

// Query builds the search body: a fuzzy multi_match over title and
// description, optionally filtered to one category.
func Query(q string, category models.Category, from, size int) map[string]any {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     strings.TrimSpace(q),
			"fields":    []string{"title^2", "description"},
			"fuzziness": "AUTO",
		},
	}
	boolQuery := map[string]any{"must": []any{must}}
	if category != "" {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"category": string(category)}},
		}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
		"sort":  []any{"_score", map[string]any{"datePosted": "desc"}},
	}
}

func (ix *Index) Search(ctx context.Context, q string, category models.Category, from, size int) (int64, []models.Product, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Query(q, category, from, size)); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("search", res); err != nil {
		return 0, nil, err
	}
	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []models.Product, error) {
	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]models.Product, len(body.Hits.Hits))
	for i, hit := range body.Hits.Hits {
		products[i] = hit.Source
	}
	return body.Hits.Total.Value, products, nil
}

func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}
