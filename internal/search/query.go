package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a works query.
type SearchParams struct {
	Query      string
	CategoryID string
	MinYear    int
	MaxYear    int
	Limit      int
	Offset     int
}

// DefaultSearchParams returns the defaults used by the API.
func DefaultSearchParams() SearchParams {
	return SearchParams{Limit: 50}
}

// SearchHit is one matching work.
type SearchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"titulo"`
}

// SearchResult is a page of hits.
type SearchResult struct {
	Query string      `json:"query"`
	Total uint64      `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

// IDs returns the hit ids in rank order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}

// Search runs params against the index. An empty query matches every work
// and sorts by recency; otherwise hits are ranked by score.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.Fields = []string{"titulo"}
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-created_at"})
	} else {
		req.SortBy([]string{"-_score"})
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &SearchResult{
		Query: params.Query,
		Total: res.Total,
		Hits:  make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["titulo"].(string); ok {
			h.Title = t
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("titulo")
		title.SetBoost(3.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("titulo")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		category := bleve.NewMatchQuery(q)
		category.SetField("categoria")
		category.SetBoost(1.5)

		desc := bleve.NewMatchQuery(q)
		desc.SetField("descripcion")

		text := []query.Query{title, fuzzy, category, desc}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("titulo")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.CategoryID != "" {
		cq := bleve.NewTermQuery(params.CategoryID)
		cq.SetField("categoria_id")
		queries = append(queries, cq)
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		lo := float64(params.MinYear)
		hi := float64(params.MaxYear)
		if params.MaxYear == 0 {
			hi = 3000
		}
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		rq.SetField("anio")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
