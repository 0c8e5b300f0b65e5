// Package corpus normalizes corpus documents and bulk-indexes them so the
// retrieval backend searches canonical entity names.
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/models"
)

// Normalizer is the subset of the text normalizer the indexer needs.
type Normalizer interface {
	NormalizeContent(text string) string
	Mentions(text string) []string
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// IndexedDocument is the stored source of one corpus document.
type IndexedDocument struct {
	SourceName string            `json:"source_name"`
	Content    string            `json:"content"`
	Entities   []string          `json:"entities"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IndexedAt  time.Time         `json:"indexed_at"`
}

type Indexer struct {
	client       *elasticsearch.Client
	normalizer   Normalizer
	defaultIndex string
	logger       Logger
	now          func() time.Time
}

func NewIndexer(client *elasticsearch.Client, n Normalizer, defaultIndex string, log Logger) *Indexer {
	return &Indexer{
		client:       client,
		normalizer:   n,
		defaultIndex: defaultIndex,
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Prepare normalizes doc for storage.
func (ix *Indexer) Prepare(doc models.Document) IndexedDocument {
	content := ix.normalizer.NormalizeContent(doc.Content)
	entities := ix.normalizer.Mentions(content)
	if entities == nil {
		entities = []string{}
	}
	return IndexedDocument{
		SourceName: ix.normalizer.NormalizeContent(doc.SourceName),
		Content:    content,
		Entities:   entities,
		Metadata:   doc.Metadata,
		IndexedAt:  ix.now(),
	}
}

// Index sends docs in one bulk request. Documents without content are
// counted as failed and not sent. Per-item failures reported by
// Elasticsearch are counted, not returned as an error.
func (ix *Indexer) Index(ctx context.Context, index string, docs []models.Document) (*models.IndexResult, error) {
	if index == "" {
		index = ix.defaultIndex
	}
	if index == "" {
		return nil, errors.NewInvalidInputError("index is required")
	}

	result := &models.IndexResult{FailedIDs: []string{}}
	var body bytes.Buffer
	sent := 0

	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		if strings.TrimSpace(doc.Content) == "" {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}

		meta, _ := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_index": index, "_id": id},
		})
		source, err := json.Marshal(ix.Prepare(doc))
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		body.Write(meta)
		body.WriteByte('\n')
		body.Write(source)
		body.WriteByte('\n')
		sent++
	}

	if sent == 0 {
		return result, nil
	}

	req := esapi.BulkRequest{
		Body:    &body,
		Refresh: "false",
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		ix.logger.Error("bulk request failed", map[string]interface{}{"index": index, "error": err.Error()})
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewCorpusIndexFailedError(index, fmt.Errorf("bulk request rejected: %s", res.Status()))
	}

	var bulk bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return nil, errors.NewCorpusIndexFailedError(index, fmt.Errorf("failed to decode bulk response: %w", err))
	}

	for _, item := range bulk.Items {
		for _, op := range item {
			if op.Error != nil || op.Status >= 300 {
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, op.ID)
				ix.logger.Warn("document rejected", map[string]interface{}{
					"index":  index,
					"id":     op.ID,
					"status": op.Status,
					"reason": op.Error.reason(),
				})
				continue
			}
			result.Indexed++
		}
	}

	ix.logger.Info("corpus indexed", map[string]interface{}{
		"index":   index,
		"indexed": result.Indexed,
		"failed":  result.Failed,
		"took_ms": bulk.Took,
	})
	return result, nil
}

type bulkResponse struct {
	Took   int64                         `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkItemResponse `json:"items"`
}

type bulkItemResponse struct {
	ID     string     `json:"_id"`
	Status int        `json:"status"`
	Error  *bulkError `json:"error,omitempty"`
}

type bulkError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e *bulkError) reason() string {
	if e == nil {
		return ""
	}
	return e.Type + ": " + e.Reason
}
