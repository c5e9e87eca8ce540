package search

import (
	"strings"

	"rental-manager/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// Document kinds
const (
	KindProperty = "property"
	KindTenant   = "tenant"
)

// Document is the indexed form of a property or tenant
type Document struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "rental_entities"
	}

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"subtitle",
	})
	if err != nil {
		return err
	}

	// Every search is scoped to one account
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"user_id",
		"kind",
	})
	return err
}

// PropertyDocument maps a property to its search document
func PropertyDocument(p *models.Property) Document {
	subtitle := strings.TrimSpace(strings.Join(nonEmpty(p.Address, p.PostalCode, p.City), ", "))
	return Document{ID: p.ID, Kind: KindProperty, UserID: p.UserID, Title: p.Name, Subtitle: subtitle}
}

// TenantDocument maps a tenant to its search document
func TenantDocument(t *models.Tenant) Document {
	return Document{ID: t.ID, Kind: KindTenant, UserID: t.UserID, Title: t.FullName(), Subtitle: strings.Join(nonEmpty(t.Email, t.Phone), ", ")}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IndexProperty indexes a single property
func (s *SearchClient) IndexProperty(p *models.Property) error {
	return s.IndexDocuments([]Document{PropertyDocument(p)})
}

// IndexTenant indexes a single tenant
func (s *SearchClient) IndexTenant(t *models.Tenant) error {
	return s.IndexDocuments([]Document{TenantDocument(t)})
}

// IndexDocuments indexes a batch of documents
func (s *SearchClient) IndexDocuments(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

// Remove deletes a document by id
func (s *SearchClient) Remove(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// SearchResult represents one page of hits
type SearchResult struct {
	Hits           []Document `json:"hits"`
	TotalHits      int64      `json:"total_hits"`
	ProcessingTime int64      `json:"processing_time_ms"`
}

// Search runs a query scoped to the caller's account
func (s *SearchClient) Search(params FilterParams) (*SearchResult, error) {
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Filter: params.Filter(),
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Document, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		if doc, ok := parseDocumentFromHit(hit); ok {
			hits = append(hits, doc)
		}
	}

	return &SearchResult{
		Hits:           hits,
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseDocumentFromHit converts a search hit to a Document
func parseDocumentFromHit(hit interface{}) (Document, bool) {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return Document{}, false
	}
	doc := Document{
		ID:       getString(hitMap, "id"),
		Kind:     getString(hitMap, "kind"),
		UserID:   getString(hitMap, "user_id"),
		Title:    getString(hitMap, "title"),
		Subtitle: getString(hitMap, "subtitle"),
	}
	return doc, doc.ID != ""
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
