// Package dispatch discovers handler callables on a user object and invokes
// them by name (spec §4.3). Discovery modes and override names/kinds mirror
// the Python source's decorator-based dispatcher (original_source's
// jsonrpc_stream/dispatcher.py); Go substitutes reflection plus an optional
// Declarer interface for the "decorated" mode, per spec §9's design notes.
// file: dispatch/dispatch.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/logging"
	"github.com/dkoosis/jsonrpcx/rpcerr"
)

// Mode selects which of a user object's methods are exposed.
type Mode int

const (
	// ModeDecorated exposes only methods the object names through Declarer.
	ModeDecorated Mode = iota
	// ModePublic exposes every exported method. Go's reflect package cannot
	// observe unexported methods at all (unlike Python's inspect), so
	// ModePublic and ModeAll coincide for method discovery — see DESIGN.md.
	ModePublic
	// ModeAll exposes every exported method (see ModePublic doc).
	ModeAll
)

// Kind distinguishes a request-style handler (reply expected) from a
// notification-style one (fire-and-forget).
type Kind int

const (
	KindRequest Kind = iota
	KindNotification
)

// Tag is the per-method metadata the Python source attached via the
// @request/@notification decorators: an override wire name and a kind.
type Tag struct {
	Name string
	Kind Kind
}

// Declarer lets an object opt specific methods into ModeDecorated discovery,
// the static-language substitute for Python's attribute-marking decorators
// (spec §9): "(a) an explicit registry builder ... populating a table".
type Declarer interface {
	JSONRPCMethods() map[string]Tag
}

var log = logging.Get("dispatch")

type target struct {
	fn   reflect.Value
	kind Kind
}

// Namespace binds a set of named handlers discovered from a user object.
type Namespace struct {
	requests      map[string]target
	notifications map[string]target
	guards        map[string]*guard
}

// New discovers handlers on obj under the given mode.
func New(obj any, mode Mode) (*Namespace, error) {
	v := reflect.ValueOf(obj)
	t := v.Type()

	declared := map[string]Tag{}
	if d, ok := obj.(Declarer); ok {
		declared = d.JSONRPCMethods()
	}

	ns := &Namespace{
		requests:      map[string]target{},
		notifications: map[string]target{},
		guards:        map[string]*guard{},
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)

		tag, isDeclared := declared[m.Name]
		switch mode {
		case ModeDecorated:
			if !isDeclared {
				continue
			}
		case ModePublic, ModeAll:
			if !isDeclared {
				tag = Tag{Name: m.Name, Kind: defaultKind(m.Name)}
			}
		}
		if tag.Name == "" {
			tag.Name = m.Name
		}

		tg := target{fn: v.Method(i), kind: tag.Kind}
		if tag.Kind == KindNotification {
			ns.notifications[tag.Name] = tg
		} else {
			ns.requests[tag.Name] = tg
		}
	}

	return ns, nil
}

// defaultKind applies the naming convention used when a method isn't
// explicitly tagged through Declarer: a "Notify"-prefixed method is treated
// as fire-and-forget, everything else expects a reply.
func defaultKind(name string) Kind {
	if strings.HasPrefix(name, "Notify") {
		return KindNotification
	}
	return KindRequest
}

// WithGuard installs a CEL predicate (see guard.go) evaluated against the
// call's params before the named method runs. A false/error result maps to
// InvalidParams. Optional enrichment (spec's SPEC_FULL §6); off by default.
func (ns *Namespace) WithGuard(method, expr string) error {
	g, err := newGuard(expr)
	if err != nil {
		return err
	}
	ns.guards[method] = g
	return nil
}

// Call invokes a request-kind handler and returns its result.
func (ns *Namespace) Call(ctx context.Context, method string, params entity.Params) (any, error) {
	tg, ok := ns.requests[method]
	if !ok {
		return nil, rpcerr.MethodNotFound(method)
	}
	if g, ok := ns.guards[method]; ok {
		if err := g.check(method, params); err != nil {
			return nil, err
		}
	}
	return invoke(ctx, method, tg.fn, params)
}

// Notify invokes a notification-kind handler, discarding its result. Arity
// errors and handler panics are logged, never surfaced (spec §4.3/§7: a
// notification has no reply channel).
func (ns *Namespace) Notify(ctx context.Context, method string, params entity.Params) {
	tg, ok := ns.notifications[method]
	if !ok {
		log.Warn("notification for unknown method", "method", method)
		return
	}
	if g, ok := ns.guards[method]; ok {
		if err := g.check(method, params); err != nil {
			log.Warn("notification failed guard", "method", method, "error", err)
			return
		}
	}
	if _, err := invoke(ctx, method, tg.fn, params); err != nil {
		log.Warn("notification handler error", "method", method, "error", err)
	}
}

// invoke performs the shape-dispatch described in spec §4.3: params is
// dispatched by shape (sequence -> positional, mapping -> named, absent ->
// zero args, scalar -> single positional) against fn's reflect signature.
// Recovers handler panics into rpcerr.InternalError; reflect argument-count
// or type mismatches become rpcerr.InvalidParams. A returned error that is
// not already an *rpcerr.Error becomes rpcerr.InternalError.
func invoke(ctx context.Context, method string, fn reflect.Value, params entity.Params) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rpcErr, ok := r.(*rpcerr.Error); ok {
				err = rpcErr
				return
			}
			err = rpcerr.InternalError(fmt.Errorf("panic in handler %s: %v", method, r))
		}
	}()

	args, buildErr := buildArgs(ctx, fn, method, params)
	if buildErr != nil {
		return nil, buildErr
	}

	outs := fn.Call(args)
	result, err = splitResults(outs)
	if err != nil {
		if _, ok := err.(*rpcerr.Error); !ok {
			err = rpcerr.InternalError(err)
		}
	}
	return result, err
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// buildArgs assembles the reflect.Value argument list for fn from params,
// consuming a leading context.Context parameter if the handler declares one.
// Named params require the handler to take exactly one non-context argument,
// a struct that the named map is decoded into via a JSON round-trip.
func buildArgs(ctx context.Context, fn reflect.Value, method string, params entity.Params) ([]reflect.Value, error) {
	ft := fn.Type()
	wantsCtx := ft.NumIn() > 0 && ft.In(0) == ctxType
	offset := 0
	if wantsCtx {
		offset = 1
	}
	dataArity := ft.NumIn() - offset

	switch params.Kind {
	case entity.ParamsNone:
		if dataArity != 0 {
			return nil, rpcerr.InvalidParams(method, fmt.Errorf("expected %d args, got 0", dataArity))
		}
		return prependCtx(ctx, wantsCtx, nil), nil

	case entity.ParamsPositional, entity.ParamsRaw:
		values := params.Positional
		if params.Kind == entity.ParamsRaw {
			values = []any{params.Raw}
		}
		if len(values) != dataArity {
			return nil, rpcerr.InvalidParams(method, fmt.Errorf("expected %d args, got %d", dataArity, len(values)))
		}
		args := make([]reflect.Value, 0, dataArity)
		for i, val := range values {
			rv, err := convertArg(val, ft.In(offset+i))
			if err != nil {
				return nil, rpcerr.InvalidParams(method, err)
			}
			args = append(args, rv)
		}
		return prependCtx(ctx, wantsCtx, args), nil

	case entity.ParamsNamed:
		if dataArity != 1 {
			return nil, rpcerr.InvalidParams(method, fmt.Errorf("named params require a single struct argument, handler takes %d", dataArity))
		}
		target := ft.In(offset)
		raw, err := json.Marshal(params.Named)
		if err != nil {
			return nil, rpcerr.InvalidParams(method, err)
		}
		ptr := reflect.New(target)
		if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
			return nil, rpcerr.InvalidParams(method, err)
		}
		return prependCtx(ctx, wantsCtx, []reflect.Value{ptr.Elem()}), nil

	default:
		return nil, rpcerr.InvalidParams(method, fmt.Errorf("unrecognized params shape"))
	}
}

func prependCtx(ctx context.Context, wantsCtx bool, args []reflect.Value) []reflect.Value {
	if !wantsCtx {
		return args
	}
	out := make([]reflect.Value, 0, len(args)+1)
	out = append(out, reflect.ValueOf(ctx))
	return append(out, args...)
}

// convertArg coerces a decoded JSON value (float64/string/bool/map/slice/nil)
// into the target reflect type via a JSON marshal/unmarshal round-trip,
// which handles numeric narrowing and struct decoding uniformly.
func convertArg(val any, target reflect.Type) (reflect.Value, error) {
	if val == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(target)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// splitResults interprets a handler's return values under the (result, error),
// (error), (result), or () conventions.
func splitResults(outs []reflect.Value) (any, error) {
	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		if outs[0].Type().Implements(errType) {
			if outs[0].IsNil() {
				return nil, nil
			}
			return nil, outs[0].Interface().(error)
		}
		return outs[0].Interface(), nil
	default:
		last := outs[len(outs)-1]
		var err error
		if last.Type().Implements(errType) && !last.IsNil() {
			err = last.Interface().(error)
		}
		return outs[0].Interface(), err
	}
}
