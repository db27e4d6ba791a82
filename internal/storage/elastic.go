package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/pragmaticfish/sushify/pkg/exchange"
)

// ElasticStorage indexes exchanges into Elasticsearch, one document per
// exchange, keyed by the exchange id.
type ElasticStorage struct {
	ES    *elasticsearch.Client
	Index string
}

// Store indexes the exchange into the configured index.
func (s *ElasticStorage) Store(e *exchange.Exchange) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error in marshaling the exchange: %w", err)
	}

	res, err := s.ES.Index(s.Index, bytes.NewReader(payload), s.ES.Index.WithDocumentID(e.ID))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("error in indexing the exchange: %s", res.String())
	}
	return nil
}
