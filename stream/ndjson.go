// file: stream/ndjson.go
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/serializer"
)

// LineDelimited frames one JSON value per line instead of Content-Length
// headers — the second concrete framing spec §4.2 calls out by name.
type LineDelimited struct {
	scanner *bufio.Scanner
	writer  io.Writer
	closer  io.Closer

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewLineDelimited wraps a transport with newline-delimited JSON framing.
func NewLineDelimited(r io.Reader, w io.Writer, c io.Closer) *LineDelimited {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &LineDelimited{scanner: scanner, writer: w, closer: c}
}

// Fetch reads one line and decodes it as an entity.
func (s *LineDelimited) Fetch(_ context.Context) (entity.Entity, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		return serializer.Decode(line), nil
	}
	return nil, io.EOF
}

// Dispatch encodes and writes one entity followed by a newline.
func (s *LineDelimited) Dispatch(_ context.Context, e entity.Entity) error {
	body, err := serializer.Encode(e)
	if err != nil {
		return fmt.Errorf("stream: encode: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.writer.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("stream: write: %w", err)
	}
	if f, ok := s.writer.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close half-closes both directions, idempotently.
func (s *LineDelimited) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
