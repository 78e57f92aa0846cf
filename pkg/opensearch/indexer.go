package opensearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Indexer writes JSON documents with the index API.
type Indexer struct {
	client *opensearch.Client
}

// NewIndexer wraps client.
func NewIndexer(client *opensearch.Client) *Indexer {
	return &Indexer{client: client}
}

// Index stores doc under id in index, replacing any previous version.
func (i *Indexer) Index(ctx context.Context, index, id string, doc []byte) error {
	req := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(doc),
	}

	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Join(ErrIndexFailed, fmt.Errorf("status %s: %s", resp.Status(), bytes.TrimSpace(body)))
	}
	return nil
}
