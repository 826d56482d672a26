// Package search keeps tickets in an Elasticsearch index for full-text
// lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/services"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"
)

const defaultSearchLimit = 20

const ticketMapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
	"ticket_number":{"type":"keyword"},"title":{"type":"text"},"description":{"type":"text"},
	"category":{"type":"keyword"},"issue_type":{"type":"text"},"status":{"type":"keyword"},
	"priority":{"type":"keyword"},"department":{"type":"keyword"},"routed_department":{"type":"keyword"},
	"assigned_role":{"type":"keyword"},"submitter_id":{"type":"keyword"},"campus_zone":{"type":"keyword"},
	"created_at":{"type":"date"},"updated_at":{"type":"date"}
}}}`

// Connect creates an Elasticsearch client for cfg
func Connect(cfg config.SearchConfig, l zerolog.Logger) (*es.Client, error) {
	client, err := es.NewClient(es.Config{Addresses: []string{cfg.ElasticURL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	l.Info().Str("url", cfg.ElasticURL).Msg("elasticsearch client ready")
	return client, nil
}

// TicketIndex reads and writes the ticket index
type TicketIndex struct {
	client *es.Client
	index  string
	log    zerolog.Logger
}

// NewTicketIndex wraps client for the named index
func NewTicketIndex(client *es.Client, index string, l zerolog.Logger) *TicketIndex {
	return &TicketIndex{client: client, index: index, log: l}
}

// Name is the index name
func (x *TicketIndex) Name() string { return x.index }

// EnsureIndex creates the index with its mapping when it does not exist
func (x *TicketIndex) EnsureIndex(ctx context.Context) error {
	exists, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithBody(bytes.NewBufferString(ticketMapping)),
		x.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.index, res.String())
	}
	x.log.Info().Str("index", x.index).Msg("search index created")
	return nil
}

// NewBulkIndexer returns a bulk indexer writing to this index
func (x *TicketIndex) NewBulkIndexer() (esutil.BulkIndexer, error) {
	return esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     x.client,
		Index:      x.index,
		FlushBytes: 5 << 20,
		NumWorkers: 2,
	})
}

// TicketDoc is the indexed form of a ticket
type TicketDoc struct {
	TicketNumber     string    `json:"ticket_number"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	IssueType        string    `json:"issue_type,omitempty"`
	Status           string    `json:"status"`
	Priority         string    `json:"priority"`
	Department       string    `json:"department,omitempty"`
	RoutedDepartment string    `json:"routed_department"`
	AssignedRole     string    `json:"assigned_role,omitempty"`
	SubmitterID      string    `json:"submitter_id"`
	CampusZone       string    `json:"campus_zone,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BuildTicketDoc renders t as an index document
func BuildTicketDoc(t *models.Ticket) ([]byte, error) {
	return json.Marshal(TicketDoc{
		TicketNumber:     t.TicketNumber,
		Title:            t.Title,
		Description:      t.Description,
		Category:         string(t.Category),
		IssueType:        t.IssueType,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Department:       t.Department,
		RoutedDepartment: string(t.RoutedDepartment),
		AssignedRole:     string(t.AssignedRole),
		SubmitterID:      t.SubmitterID,
		CampusZone:       t.CampusZone,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	})
}

// SearchTickets returns ids of tickets matching q, best match first
func (x *TicketIndex) SearchTickets(ctx context.Context, q services.TicketSearchQuery) ([]string, error) {
	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(body)),
		x.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", x.index, res.String())
	}
	return parseHits(res.Body)
}

func buildQuery(q services.TicketSearchQuery) map[string]any {
	boolQuery := map[string]any{
		"must": []any{
			map[string]any{"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"title^3", "ticket_number^4", "description", "issue_type"},
			}},
		},
	}
	var filters []any
	if q.Status != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"status": q.Status}})
	}
	if q.Category != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"category": q.Category}})
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return map[string]any{"query": map[string]any{"bool": boolQuery}}
}

func parseHits(r io.Reader) ([]string, error) {
	var out struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
