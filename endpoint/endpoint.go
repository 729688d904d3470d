// Package endpoint implements the full-duplex JSON-RPC 2.0 loop: one
// long-lived reader task correlating outbound requests to their eventual
// responses, and routing inbound entities to locally registered dispatch
// namespaces (spec §4.5).
// file: endpoint/endpoint.go
package endpoint

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dkoosis/jsonrpcx/dispatch"
	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/internal/rfsm"
	"github.com/dkoosis/jsonrpcx/logging"
	"github.com/dkoosis/jsonrpcx/proxy"
	"github.com/dkoosis/jsonrpcx/rpcerr"
	"github.com/dkoosis/jsonrpcx/stream"
)

// DefaultSeparator is the namespace/method separator used when Options
// doesn't specify one (spec §4.5).
const DefaultSeparator = "/"

// Options configures an Endpoint.
type Options struct {
	// Separator divides "namespace<sep>method" in outbound and inbound
	// method names. Defaults to "/".
	Separator string
	// DefaultTimeout bounds every outbound Call that doesn't specify its
	// own per-call timeout via CallTimeout. Zero means no timeout.
	DefaultTimeout time.Duration
	// Logger receives the endpoint's structured log output. Defaults to a
	// no-op logger.
	Logger logging.Logger
}

type pendingSlot struct {
	done   chan struct{}
	result any
	err    error
	once   sync.Once
}

func (p *pendingSlot) resolve(result any, err error) {
	p.once.Do(func() {
		p.result = result
		p.err = err
		close(p.done)
	})
}

// Endpoint composes one framed stream, a set of dispatchers keyed by
// namespace, a set of proxies, and a pending-request table keyed by
// correlation ID (spec §4.5).
type Endpoint struct {
	stream    stream.Stream
	separator string
	timeout   time.Duration
	log       logging.Logger

	mu          sync.RWMutex
	dispatchers map[string]*dispatch.Namespace
	pending     map[string]*pendingSlot

	fsm *rfsm.ReaderFSM

	closeOnce sync.Once
	closed    chan struct{}

	readerDone chan struct{}
	wg         sync.WaitGroup
}

// New constructs an Endpoint over the given stream. Call Start to begin the
// reader loop.
func New(s stream.Stream, opts Options) *Endpoint {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}

	ep := &Endpoint{
		stream:      s,
		separator:   sep,
		timeout:     opts.DefaultTimeout,
		log:         log,
		dispatchers: map[string]*dispatch.Namespace{},
		pending:     map[string]*pendingSlot{},
		closed:      make(chan struct{}),
		readerDone:  make(chan struct{}),
	}
	ep.fsm = rfsm.New(log, ep.onReaderStopped)
	return ep
}

// AttachDispatcher registers obj's discovered handlers under namespace
// (spec §4.5/§9's attach_dispatcher). If namespace is empty, it defaults to
// obj's Go type name.
func (ep *Endpoint) AttachDispatcher(obj any, namespace string, mode dispatch.Mode) error {
	ns, err := dispatch.New(obj, mode)
	if err != nil {
		return fmt.Errorf("endpoint: attach dispatcher: %w", err)
	}
	if namespace == "" {
		namespace = typeName(obj)
	}
	ep.mu.Lock()
	ep.dispatchers[namespace] = ns
	ep.mu.Unlock()
	return nil
}

// AttachProxy wires stub's fields into outbound-RPC stubs bound to namespace
// (spec §4.5/§9's attach_proxy).
func (ep *Endpoint) AttachProxy(stub any, namespace string, mode proxy.Mode) error {
	if namespace == "" {
		namespace = typeName(stub)
	}
	return proxy.Attach(ep, stub, namespace, mode)
}

// Start launches the reader task. The Endpoint begins servicing inbound
// entities and outbound calls immediately; Start returns without blocking.
func (ep *Endpoint) Start() {
	ep.wg.Add(1)
	go ep.readLoop()
}

// readLoop is the single long-lived task that calls stream.Fetch (spec §5:
// "only the reader task calls fetch").
func (ep *Endpoint) readLoop() {
	defer ep.wg.Done()
	defer close(ep.readerDone)

	ctx := context.Background()
	for {
		if ep.fsm.IsStopped() {
			return
		}
		e, err := ep.stream.Fetch(ctx)
		if err != nil {
			ep.log.Info("stream reached end-of-stream")
			ep.fsm.NotifyStreamEnded(ctx)
			return
		}
		// Dispatch order follows wire order; handler completion order is
		// unconstrained (spec §5) — each entity's handling runs in its own
		// goroutine except the write path, which stream.Dispatch serializes.
		ep.wg.Add(1)
		go func(e entity.Entity) {
			defer ep.wg.Done()
			ep.handleEntity(context.Background(), e)
		}(e)
	}
}

func (ep *Endpoint) onReaderStopped() {
	ep.failAllPending(rpcerr.StreamClosed())
}

// Join blocks until the reader loop and every in-flight handler it spawned
// have finished.
func (ep *Endpoint) Join() {
	<-ep.readerDone
	ep.wg.Wait()
}

// Close tears down the stream and transitions the reader to Stopped,
// idempotently. Outstanding pending slots resolve with a stream-closed
// failure (spec §4.5 Shutdown, §5 Scoped acquisition).
func (ep *Endpoint) Close() error {
	var closeErr error
	ep.closeOnce.Do(func() {
		close(ep.closed)
		ep.fsm.Close(context.Background())
		closeErr = ep.stream.Close()
		ep.failAllPending(rpcerr.StreamClosed())
	})
	return closeErr
}

func (ep *Endpoint) failAllPending(err error) {
	ep.mu.Lock()
	slots := make([]*pendingSlot, 0, len(ep.pending))
	for _, s := range ep.pending {
		slots = append(slots, s)
	}
	ep.mu.Unlock()
	for _, s := range slots {
		s.resolve(nil, err)
	}
}

func typeName(obj any) string {
	t := fmt.Sprintf("%T", obj)
	if idx := strings.LastIndex(t, "."); idx >= 0 {
		t = t[idx+1:]
	}
	return strings.TrimPrefix(t, "*")
}

func (ep *Endpoint) parseMethod(full string) (namespace, method string) {
	idx := strings.Index(full, ep.separator)
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+len(ep.separator):]
}

func (ep *Endpoint) dispatcherFor(namespace string) (*dispatch.Namespace, bool) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	ns, ok := ep.dispatchers[namespace]
	return ns, ok
}
