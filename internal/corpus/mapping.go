package corpus

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rag-brand-guard/internal/common/errors"
)

const indexMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"folded": {
					"tokenizer": "standard",
					"filter": ["lowercase", "asciifolding"]
				}
			}
		}
	},
	"mappings": {
		"properties": {
			"source_name": {"type": "keyword"},
			"content":     {"type": "text", "analyzer": "folded"},
			"entities":    {"type": "keyword"},
			"metadata":    {"type": "object", "dynamic": true},
			"indexed_at":  {"type": "date"}
		}
	}
}`

// EnsureIndex creates index with the corpus mapping. An existing index is
// left untouched.
func (ix *Indexer) EnsureIndex(ctx context.Context, index string) error {
	if index == "" {
		index = ix.defaultIndex
	}

	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, ix.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, ix.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return errors.NewCorpusIndexFailedError(index, fmt.Errorf("create index: %s", res.String()))
	}
	ix.logger.Info("corpus index ready", map[string]interface{}{"index": index})
	return nil
}
