// Package transport defines the byte-stream collaborator a framed stream
// reads from and writes to. The concrete transport (process stdio, a TCP
// connection, an in-memory pair) is out of the core's scope per spec §1 —
// only the interface is specified — but a few concrete instances are ambient
// infrastructure every consumer of this module needs.
// file: transport/transport.go
package transport

import (
	"io"
	"net"
	"os"
)

// Transport is the raw, ordered, reliable, bidirectional byte stream the
// framed stream layer is built on. Any io.ReadWriteCloser qualifies.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Stdio wraps process stdin/stdout as a Transport. Close closes stdin; stdout
// is left open for any final diagnostic writes by the caller.
type Stdio struct {
	in  *os.File
	out *os.File
}

// NewStdio returns a Transport over the current process's stdio.
func NewStdio() *Stdio {
	return &Stdio{in: os.Stdin, out: os.Stdout}
}

func (s *Stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *Stdio) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *Stdio) Close() error                { return s.in.Close() }

// TCP wraps a net.Conn as a Transport; net.Conn already satisfies the
// interface directly, but this constructor documents the intended use and
// gives the teacher's cmd/server-style entry points a named type to return.
type TCP struct {
	net.Conn
}

// NewTCP wraps an established connection.
func NewTCP(conn net.Conn) *TCP {
	return &TCP{Conn: conn}
}

// Dial connects to addr and wraps the resulting connection.
func Dial(network, addr string) (*TCP, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return NewTCP(conn), nil
}
