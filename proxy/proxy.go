// Package proxy turns a user object's methods into outbound-RPC stubs.
// Spec §4.4/§9: the Python source mutates the proxied object's methods in
// place; the static-language equivalent used here is a stub struct whose
// function-typed fields are assigned closures that call back into the owning
// endpoint's Call/Notify.
// file: proxy/proxy.go
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/dkoosis/jsonrpcx/entity"
)

// Mode mirrors dispatch.Mode: which struct fields become remote stubs.
type Mode int

const (
	// ModeDecorated wires only fields carrying a `jsonrpc:"..."` tag.
	ModeDecorated Mode = iota
	// ModePublic wires every exported, function-typed field.
	ModePublic
	// ModeAll is identical to ModePublic for struct fields — Go has no
	// notion of "private field, but still settable via reflect" the way
	// Python's introspection does; see dispatch package doc for the
	// analogous method-discovery note.
	ModeAll
)

// Caller is the subset of endpoint.Endpoint a proxy stub needs; kept as an
// interface here so this package has no import-cycle dependency on endpoint.
type Caller interface {
	Call(ctx context.Context, namespace, method string, params entity.Params) (any, error)
	Notify(ctx context.Context, namespace, method string, params entity.Params) error
}

// Attach wires every discovered field of stub (a pointer to a struct) to a
// closure that issues an outbound RPC through caller. A field is
// notification-kind only when its jsonrpc tag carries ",notify"; every other
// wired field is request-kind. A leading context.Context argument is passed
// through, the remaining arguments become positional params, a request-kind
// result is converted into the field's first result type, and the error goes
// into the field's last result.
func Attach(caller Caller, stub any, namespace string, mode Mode) error {
	v := reflect.ValueOf(stub)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("proxy: stub must be a pointer to a struct, got %T", stub)
	}
	elem := v.Elem()
	t := elem.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}

		tagName, tagNotify, tagged := parseTag(field.Tag.Get("jsonrpc"))
		switch mode {
		case ModeDecorated:
			if !tagged {
				continue
			}
		case ModePublic, ModeAll:
			if !field.IsExported() {
				continue
			}
		}

		name := field.Name
		if tagged && tagName != "" {
			name = tagName
		}
		isNotify := tagged && tagNotify

		stubFn := makeStub(caller, namespace, name, isNotify, field.Type)
		elem.Field(i).Set(stubFn)
	}

	return nil
}

// parseTag parses a `jsonrpc:"name,notify"` struct tag.
func parseTag(tag string) (name string, notify bool, present bool) {
	if tag == "" {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, p := range parts[1:] {
		if p == "notify" {
			notify = true
		}
	}
	return name, notify, true
}

// makeStub builds a reflect.Value of type fieldType that forwards calls to
// caller.Call/Notify with the given namespace/method, converting the
// caller's variadic arguments into entity.Params positionally.
func makeStub(caller Caller, namespace, method string, isNotify bool, fieldType reflect.Type) reflect.Value {
	fn := func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		argStart := 0
		if fieldType.NumIn() > 0 && fieldType.In(0) == reflect.TypeOf((*context.Context)(nil)).Elem() {
			ctx = in[0].Interface().(context.Context)
			argStart = 1
		}

		args := make([]any, 0, len(in)-argStart)
		for _, a := range in[argStart:] {
			args = append(args, a.Interface())
		}
		params := entity.Positional(args...)

		if isNotify {
			err := caller.Notify(ctx, namespace, method, params)
			if fieldType.NumOut() == 0 {
				return nil
			}
			return []reflect.Value{errValue(fieldType, fieldType.NumOut()-1, err)}
		}

		result, err := caller.Call(ctx, namespace, method, params)
		return buildCallResults(fieldType, result, err)
	}
	return reflect.MakeFunc(fieldType, fn)
}

func buildCallResults(fieldType reflect.Type, result any, err error) []reflect.Value {
	numOut := fieldType.NumOut()
	out := make([]reflect.Value, numOut)
	if numOut == 0 {
		return out
	}
	if numOut == 1 {
		out[0] = errValue(fieldType, 0, err)
		return out
	}
	rv, convErr := convertResult(result, fieldType.Out(0))
	if convErr != nil && err == nil {
		err = convErr
	}
	out[0] = rv
	out[numOut-1] = errValue(fieldType, numOut-1, err)
	return out
}

// convertResult coerces the any-typed result returned through a Caller (the
// decoded shapes an endpoint's serializer produces — map[string]any,
// float64, etc.) into the stub's declared result type via the same JSON
// marshal/unmarshal round-trip convertArg uses on the inbound side. A
// conversion failure returns the zero value alongside the error so the
// caller can still populate every output slot reflect.MakeFunc expects.
func convertResult(result any, target reflect.Type) (reflect.Value, error) {
	if result == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(result)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return reflect.Zero(target), err
	}
	ptr := reflect.New(target)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Zero(target), err
	}
	return ptr.Elem(), nil
}

func errValue(fieldType reflect.Type, idx int, err error) reflect.Value {
	out := reflect.New(fieldType.Out(idx)).Elem()
	if err != nil {
		out.Set(reflect.ValueOf(err))
	}
	return out
}
