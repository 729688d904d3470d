// file: transport/memory.go
package transport

import (
	"io"
	"sync"
)

// Memory implements Transport over in-memory pipes, letting two endpoints
// exchange messages without real I/O. Grounded on the teacher's
// internal/transport/in_memory_transport.go.
type Memory struct {
	r *io.PipeReader
	w *io.PipeWriter

	closeMu sync.Mutex
	closed  bool
}

// NewMemoryPair returns two linked Transports: bytes written to one are read
// from the other, in both directions.
func NewMemoryPair() (a, b *Memory) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	a = &Memory{r: aR, w: aW}
	b = &Memory{r: bR, w: bW}
	return a, b
}

func (m *Memory) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *Memory) Write(p []byte) (int, error) { return m.w.Write(p) }

// Close closes both halves of this end of the pair, idempotently, unblocking
// any pending Read/Write on the peer with io.ErrClosedPipe / io.EOF.
func (m *Memory) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	_ = m.w.Close()
	return m.r.Close()
}
