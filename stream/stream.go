// Package stream adapts a raw byte transport into a sequence of parsed
// entities, framed with Content-Length headers by default (spec §4.2).
// file: stream/stream.go
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/logging"
	"github.com/dkoosis/jsonrpcx/serializer"
)

// Stream is the framed-message contract the endpoint depends on. Any
// implementation providing these three operations over the entity vocabulary
// is acceptable (spec §4.2) — ContentLength and LineDelimited below are the
// two concrete instances this module ships.
type Stream interface {
	// Fetch consumes one framed message. It blocks until a full message is
	// available or the transport ends, returning io.EOF in the latter case.
	Fetch(ctx context.Context) (entity.Entity, error)
	// Dispatch encodes and writes one entity, flushing before returning.
	Dispatch(ctx context.Context, e entity.Entity) error
	// Close half-closes both directions. Idempotent.
	Close() error
}

var log = logging.Get("stream")

// ContentLength is the default framing: one or more "Name: Value\r\n" header
// lines terminated by an empty line, followed by exactly Content-Length bytes
// of body. Grounded on the teacher's internal/jsonrpc/stdio_transport.go
// header loop and the original Python source's aio_json_rpc/streams.py
// tolerance rules.
type ContentLength struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewContentLength wraps a transport's read/write/close halves with
// Content-Length framing. c may be the same value as r and w (e.g. a
// net.Conn); pass nil for c if there is nothing to close.
func NewContentLength(r io.Reader, w io.Writer, c io.Closer) *ContentLength {
	return &ContentLength{reader: bufio.NewReader(r), writer: w, closer: c}
}

// Fetch reads one Content-Length-framed message and decodes it.
// Unrecoverable framing errors (missing/non-integer Content-Length, a short
// read) yield io.EOF and tear down the write half, per spec §4.2.
func (s *ContentLength) Fetch(ctx context.Context) (entity.Entity, error) {
	contentLength := -1

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, io.EOF
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			log.Warn("skipping malformed header", "line", line)
			continue
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if strings.EqualFold(name, "Content-Length") {
			n, err := strconv.Atoi(value)
			if err != nil {
				log.Error("invalid Content-Length header", "value", value)
				_ = s.closeWriteHalf()
				return nil, io.EOF
			}
			contentLength = n
		}
		// Unknown headers are ignored per spec §4.2.
	}

	if contentLength < 0 {
		log.Error("Content-Length header missing")
		_ = s.closeWriteHalf()
		return nil, io.EOF
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		log.Info("short read before Content-Length bytes arrived")
		_ = s.closeWriteHalf()
		return nil, io.EOF
	}

	return serializer.Decode(body), nil
}

// Dispatch encodes entity e, prepends the Content-Length header, and flushes.
func (s *ContentLength) Dispatch(_ context.Context, e entity.Entity) error {
	body, err := serializer.Encode(e)
	if err != nil {
		return fmt.Errorf("stream: encode: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(s.writer, header); err != nil {
		return fmt.Errorf("stream: write header: %w", err)
	}
	if _, err := s.writer.Write(body); err != nil {
		return fmt.Errorf("stream: write body: %w", err)
	}
	if f, ok := s.writer.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("stream: flush: %w", err)
		}
	}
	return nil
}

// Close half-closes both directions, idempotently.
func (s *ContentLength) Close() error {
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

func (s *ContentLength) closeWriteHalf() error {
	return s.Close()
}
