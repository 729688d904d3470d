// file: proxy/proxy_test.go
package proxy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/proxy"
)

type fakeCaller struct {
	lastNamespace string
	lastMethod    string
	lastParams    entity.Params
	callResult    any
	callErr       error
	notifyErr     error
}

func (f *fakeCaller) Call(_ context.Context, namespace, method string, params entity.Params) (any, error) {
	f.lastNamespace, f.lastMethod, f.lastParams = namespace, method, params
	return f.callResult, f.callErr
}

func (f *fakeCaller) Notify(_ context.Context, namespace, method string, params entity.Params) error {
	f.lastNamespace, f.lastMethod, f.lastParams = namespace, method, params
	return f.notifyErr
}

type publicStub struct {
	Echo func(ctx context.Context, msg string) (string, error)
	Ping func(ctx context.Context) error
}

func TestAttachPublicModeWiresExportedFuncFields(t *testing.T) {
	caller := &fakeCaller{callResult: "hi back"}
	stub := &publicStub{}
	require.NoError(t, proxy.Attach(caller, stub, "svc", proxy.ModePublic))

	result, err := stub.Echo(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi back", result)
	assert.Equal(t, "svc", caller.lastNamespace)
	assert.Equal(t, "Echo", caller.lastMethod)
	require.Equal(t, entity.ParamsPositional, caller.lastParams.Kind)
	assert.Equal(t, []any{"hi"}, caller.lastParams.Positional)
}

func TestAttachPropagatesCallError(t *testing.T) {
	caller := &fakeCaller{callErr: errors.New("remote boom")}
	stub := &publicStub{}
	require.NoError(t, proxy.Attach(caller, stub, "svc", proxy.ModePublic))

	_, err := stub.Echo(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "remote boom", err.Error())
}

type sumResult struct {
	Total int `json:"total"`
}

type structStub struct {
	Sum func(ctx context.Context, a, b int) (sumResult, error)
}

func TestAttachConvertsMapResultIntoDeclaredStructType(t *testing.T) {
	caller := &fakeCaller{callResult: map[string]any{"total": float64(7)}}
	stub := &structStub{}
	require.NoError(t, proxy.Attach(caller, stub, "svc", proxy.ModePublic))

	result, err := stub.Sum(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, sumResult{Total: 7}, result)
}

type taggedStub struct {
	Rename   func(ctx context.Context) (string, error)  `jsonrpc:"renamed"`
	Fired    func(ctx context.Context, tag string) error `jsonrpc:"fire,notify"`
	untagged func(ctx context.Context) (string, error)
}

func TestAttachDecoratedModeOnlyWiresTaggedFields(t *testing.T) {
	caller := &fakeCaller{callResult: "ok"}
	stub := &taggedStub{}
	require.NoError(t, proxy.Attach(caller, stub, "svc", proxy.ModeDecorated))

	_, err := stub.Rename(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renamed", caller.lastMethod)

	require.NoError(t, stub.Fired(context.Background(), "x"))
	assert.Equal(t, "fire", caller.lastMethod)

	assert.Nil(t, stub.untagged, "unexported/untagged fields must not be wired in decorated mode")
}

func TestAttachRejectsNonPointerStub(t *testing.T) {
	err := proxy.Attach(&fakeCaller{}, publicStub{}, "svc", proxy.ModePublic)
	require.Error(t, err)
}
