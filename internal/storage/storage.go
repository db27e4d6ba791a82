// Package storage archives assembled exchanges outside the dashboard. The
// dashboard stays the primary consumer; archive sinks are best effort.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pragmaticfish/sushify/pkg/exchange"
)

// Storage persists assembled exchanges.
type Storage interface {
	Store(e *exchange.Exchange) error
}

// StdoutStorage writes each exchange as one JSON line. The zero value writes
// to standard output.
type StdoutStorage struct {
	Out io.Writer
}

// Store renders the exchange as a single JSON line.
func (s *StdoutStorage) Store(e *exchange.Exchange) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error in marshaling the exchange: %w", err)
	}

	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	_, err = fmt.Fprintln(out, string(payload))
	return err
}
