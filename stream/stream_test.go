// file: stream/stream_test.go
package stream_test

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/stream"
)

type nopCloser struct{ closed bool }

func (c *nopCloser) Close() error { c.closed = true; return nil }

func TestContentLengthDispatchThenFetch(t *testing.T) {
	var buf bytes.Buffer
	c := &nopCloser{}
	s := stream.NewContentLength(&buf, &buf, c)

	req := entity.Request{ID: entity.NewIntID(1), Method: "svc/Echo", Params: entity.Positional("hi")}
	require.NoError(t, s.Dispatch(context.Background(), req))
	assert.Contains(t, buf.String(), "Content-Length: ")

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	decoded, ok := got.(entity.Request)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "svc/Echo", decoded.Method)
}

func TestContentLengthMissingHeaderEndsStream(t *testing.T) {
	r := bytes.NewBufferString("\r\n{\"jsonrpc\":\"2.0\"}")
	c := &nopCloser{}
	s := stream.NewContentLength(r, &bytes.Buffer{}, c)

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.True(t, c.closed, "missing Content-Length must close the underlying transport")
}

func TestContentLengthUnknownHeaderIsIgnored(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"svc/Ping"}`
	raw := "X-Trace: abc\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	s := stream.NewContentLength(bytes.NewBufferString(raw), &bytes.Buffer{}, &nopCloser{})

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	_, ok := got.(entity.Notification)
	assert.True(t, ok, "got %T", got)
}

func TestContentLengthCloseIsIdempotent(t *testing.T) {
	c := &nopCloser{}
	s := stream.NewContentLength(&bytes.Buffer{}, &bytes.Buffer{}, c)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestLineDelimitedDispatchThenFetch(t *testing.T) {
	var buf bytes.Buffer
	s := stream.NewLineDelimited(&buf, &buf, &nopCloser{})

	n := entity.Notification{Method: "svc/Ping", Params: entity.NoParams}
	require.NoError(t, s.Dispatch(context.Background(), n))
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	decoded, ok := got.(entity.Notification)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "svc/Ping", decoded.Method)
}

func TestLineDelimitedSkipsBlankLines(t *testing.T) {
	raw := "\n\n{\"jsonrpc\":\"2.0\",\"method\":\"svc/Ping\"}\n"
	s := stream.NewLineDelimited(bytes.NewBufferString(raw), &bytes.Buffer{}, &nopCloser{})

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	_, ok := got.(entity.Notification)
	assert.True(t, ok, "got %T", got)
}

func TestLineDelimitedEOFAtEnd(t *testing.T) {
	s := stream.NewLineDelimited(bytes.NewBufferString(""), &bytes.Buffer{}, &nopCloser{})
	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, io.EOF)
}
