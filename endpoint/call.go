// file: endpoint/call.go
package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/rpcerr"
)

// Call issues an outbound request under namespace/method, blocking until a
// matching Result/Error arrives, the endpoint's default timeout elapses, or
// ctx is cancelled. This fixes the source kill_timeout bug (spec §9 /
// SPEC_FULL §8): here the timeout is a real context deadline that always
// fires, never a scheduled-but-unawaited sleep.
func (ep *Endpoint) Call(ctx context.Context, namespace, method string, params entity.Params) (any, error) {
	return ep.call(ctx, namespace, method, params, ep.timeout)
}

// CallTimeout is like Call but overrides the endpoint's default timeout for
// this one call. A zero duration means no timeout.
func (ep *Endpoint) CallTimeout(ctx context.Context, namespace, method string, params entity.Params, d time.Duration) (any, error) {
	return ep.call(ctx, namespace, method, params, d)
}

func (ep *Endpoint) call(ctx context.Context, namespace, method string, params entity.Params, timeout time.Duration) (any, error) {
	select {
	case <-ep.closed:
		return nil, rpcerr.StreamClosed()
	default:
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id := entity.NewStringID(uuid.NewString())
	slot := &pendingSlot{done: make(chan struct{})}

	ep.mu.Lock()
	ep.pending[id.String()] = slot
	ep.mu.Unlock()
	defer func() {
		ep.mu.Lock()
		delete(ep.pending, id.String())
		ep.mu.Unlock()
	}()

	req := entity.Request{ID: id, Method: joinMethod(ep.separator, namespace, method), Params: params}
	if err := ep.writeEntity(req); err != nil {
		return nil, err
	}

	select {
	case <-slot.done:
		return slot.result, slot.err
	case <-ctx.Done():
		return nil, rpcerr.Timeout(method)
	case <-ep.closed:
		return nil, rpcerr.StreamClosed()
	}
}

// Notify issues a fire-and-forget outbound notification. There is no reply
// to wait for and no timeout applies.
func (ep *Endpoint) Notify(ctx context.Context, namespace, method string, params entity.Params) error {
	select {
	case <-ep.closed:
		return rpcerr.StreamClosed()
	default:
	}
	n := entity.Notification{Method: joinMethod(ep.separator, namespace, method), Params: params}
	return ep.writeEntity(n)
}

func (ep *Endpoint) writeEntity(e entity.Entity) error {
	return ep.stream.Dispatch(context.Background(), e)
}

func joinMethod(sep, namespace, method string) string {
	if namespace == "" {
		return method
	}
	return namespace + sep + method
}

// handleEntity routes one inbound entity: Request/Notification go to the
// matching dispatch namespace, Result/Error resolve a pending outbound call,
// Batch fans out per spec §4.5's batch table, Malformed is logged and always
// answered with an error reply (using its salvaged id, or null).
func (ep *Endpoint) handleEntity(ctx context.Context, e entity.Entity) {
	switch v := e.(type) {
	case entity.Request:
		ep.handleRequest(ctx, v)
	case entity.Notification:
		ep.handleNotification(ctx, v)
	case entity.Result:
		ep.resolvePending(v.ID, v.Result, nil)
	case entity.Error:
		ep.resolvePending(v.ID, nil, rpcerr.FromErrorDetails(v.Error))
	case entity.Batch:
		ep.handleBatch(ctx, v)
	case entity.Malformed:
		ep.handleMalformed(ctx, v)
	default:
		ep.log.Error("unrecognized entity kind", "type", fmt.Sprintf("%T", e))
	}
}

// handleBatch routes every element of an inbound Batch and, per spec §4.5's
// batch reply rule, collects whatever replies those elements produced into a
// single outbound Batch written in element order. A batch of pure
// notifications (or otherwise reply-less elements) writes nothing at all.
func (ep *Endpoint) handleBatch(ctx context.Context, b entity.Batch) {
	var replies []entity.Entity
	for _, item := range b.Entities {
		switch v := item.(type) {
		case entity.Request:
			replies = append(replies, ep.processRequest(ctx, v))
		case entity.Notification:
			ep.handleNotification(ctx, v)
		case entity.Result:
			ep.resolvePending(v.ID, v.Result, nil)
		case entity.Error:
			ep.resolvePending(v.ID, nil, rpcerr.FromErrorDetails(v.Error))
		case entity.Malformed:
			replies = append(replies, ep.processMalformed(v))
		default:
			ep.log.Error("unrecognized entity kind in batch", "type", fmt.Sprintf("%T", item))
		}
	}
	if len(replies) == 0 {
		return
	}
	if err := ep.writeEntity(entity.Batch{Entities: replies}); err != nil {
		ep.log.Error("failed writing batch reply", "error", err)
	}
}

func (ep *Endpoint) handleMalformed(_ context.Context, m entity.Malformed) {
	ep.log.Warn("received malformed entity", "kind", m.Kind, "cause", m.Cause)
	if writeErr := ep.writeEntity(ep.processMalformed(m)); writeErr != nil {
		ep.log.Error("failed writing malformed reply", "error", writeErr)
	}
}

// processMalformed builds the Error reply a Malformed entity always produces
// (spec §4.5's routing table), using whatever id could be salvaged — or null,
// which entity.ID's zero value marshals as.
func (ep *Endpoint) processMalformed(m entity.Malformed) entity.Entity {
	var rerr *rpcerr.Error
	if m.Kind == entity.MalformedParseError {
		rerr = rpcerr.ParseError(m.Cause)
	} else {
		rerr = rpcerr.InvalidRequest(m.Cause)
	}
	return entity.Error{ID: m.ID, HasID: true, Error: rerr.ToErrorDetails()}
}

func (ep *Endpoint) resolvePending(id entity.ID, result any, err error) {
	ep.mu.RLock()
	slot, ok := ep.pending[id.String()]
	ep.mu.RUnlock()
	if !ok {
		ep.log.Warn("reply for unknown or already-resolved call", "id", id.String())
		return
	}
	slot.resolve(result, err)
}

func (ep *Endpoint) handleRequest(ctx context.Context, req entity.Request) {
	reply := ep.processRequest(ctx, req)
	if writeErr := ep.writeEntity(reply); writeErr != nil {
		ep.log.Error("failed writing reply", "method", req.Method, "error", writeErr)
	}
}

// processRequest dispatches req and builds its Result/Error reply without
// writing it, so both the single-request path and the batch path can share
// it — the batch path needs the entity, not a side effect.
func (ep *Endpoint) processRequest(ctx context.Context, req entity.Request) entity.Entity {
	namespace, method := ep.parseMethod(req.Method)
	ns, ok := ep.dispatcherFor(namespace)
	if !ok {
		return ep.errorReply(req.ID, rpcerr.MethodNotFound(req.Method))
	}
	result, err := ns.Call(ctx, method, req.Params)
	if err != nil {
		return ep.errorReply(req.ID, err)
	}
	return entity.Result{ID: req.ID, Result: result}
}

func (ep *Endpoint) errorReply(id entity.ID, err error) entity.Entity {
	rerr, ok := err.(*rpcerr.Error)
	if !ok {
		rerr = rpcerr.InternalError(err)
	}
	return entity.Error{ID: id, HasID: true, Error: rerr.ToErrorDetails()}
}

func (ep *Endpoint) handleNotification(ctx context.Context, n entity.Notification) {
	namespace, method := ep.parseMethod(n.Method)
	ns, ok := ep.dispatcherFor(namespace)
	if !ok {
		ep.log.Warn("notification for unknown namespace", "method", n.Method)
		return
	}
	ns.Notify(ctx, method, n.Params)
}

