// internal/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/models"
)

// ElasticsearchStore serves candidates from a search index holding one
// document per restaurant, keyed by restaurant id.
type ElasticsearchStore struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

// NewElasticsearchStore reads the index pageSize documents at a time.
func NewElasticsearchStore(client *elasticsearch.Client, index string, pageSize int) *ElasticsearchStore {
	if pageSize <= 0 {
		pageSize = 10000
	}
	return &ElasticsearchStore{client: client, index: index, pageSize: pageSize}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Restaurant `json:"_source"`
			Sort   []interface{}     `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchAll pages through the whole index with search_after on id.
func (s *ElasticsearchStore) FetchAll(ctx context.Context) ([]models.Restaurant, error) {
	out := make([]models.Restaurant, 0)
	var after []interface{}

	for {
		page, err := s.searchPage(ctx, after)
		if err != nil {
			return nil, err
		}
		for _, hit := range page.Hits.Hits {
			out = append(out, hit.Source)
		}

		hits := page.Hits.Hits
		if len(hits) < s.pageSize {
			return out, nil
		}
		after = hits[len(hits)-1].Sort
		if len(after) == 0 {
			return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("full page returned without sort values"))
		}
	}
}

func (s *ElasticsearchStore) searchPage(ctx context.Context, after []interface{}) (*searchResponse, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": map[string]interface{}{"order": "asc"}}},
	}
	if len(after) > 0 {
		query["search_after"] = after
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	size := s.pageSize
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	return &parsed, nil
}

func (s *ElasticsearchStore) FetchLocations(ctx context.Context) ([]string, error) {
	rows, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return DistinctLocations(locationsOf(rows)), nil
}

func (s *ElasticsearchStore) FetchCuisines(ctx context.Context) ([]string, error) {
	rows, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return DistinctCuisines(cuisinesOf(rows)), nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  struct {
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexRestaurants upserts rows with the bulk API and refreshes the index so
// the documents are searchable on return. Rows must carry their database id.
func (s *ElasticsearchStore) IndexRestaurants(ctx context.Context, rows []models.Restaurant) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": strconv.FormatInt(r.ID, 10)},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, errors.NewSearchQueryFailedError(s.index, err)
		}
		if err := enc.Encode(r); err != nil {
			return 0, errors.NewSearchQueryFailedError(s.index, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   s.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk returned %s", res.Status()))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, errors.NewSearchQueryFailedError(s.index, err)
	}

	indexed := 0
	var reasons []string
	for _, item := range parsed.Items {
		for _, result := range item {
			if result.Status >= 200 && result.Status < 300 {
				indexed++
			} else if result.Error.Reason != "" {
				reasons = append(reasons, result.Error.Reason)
			}
		}
	}
	if parsed.Errors {
		return indexed, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk partially failed: %s", strings.Join(reasons, "; ")))
	}
	return indexed, nil
}
