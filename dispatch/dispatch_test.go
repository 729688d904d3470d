// file: dispatch/dispatch_test.go
package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jsonrpcx/dispatch"
	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/rpcerr"
)

type calcService struct{}

func (calcService) Add(_ context.Context, a, b int) (int, error) { return a + b, nil }
func (calcService) Boom(_ context.Context) (string, error)       { return "", errors.New("kaboom") }
func (calcService) Panics(_ context.Context)                     { panic("nope") }

type namedArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (calcService) AddNamed(_ context.Context, args namedArgs) (int, error) {
	return args.A + args.B, nil
}

func (calcService) NotifyTick(_ context.Context, _ string) {}

type declaredService struct{}

func (declaredService) JSONRPCMethods() map[string]dispatch.Tag {
	return map[string]dispatch.Tag{
		"Visible": {Name: "visible", Kind: dispatch.KindRequest},
	}
}

func (declaredService) Visible(_ context.Context) (string, error) { return "seen", nil }
func (declaredService) Hidden(_ context.Context) (string, error)  { return "unseen", nil }

func TestCallPositionalArgs(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	result, err := ns.Call(context.Background(), "Add", entity.Positional(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, result)
}

func TestCallNamedArgs(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	result, err := ns.Call(context.Background(), "AddNamed", entity.Named(map[string]any{"a": float64(4), "b": float64(6)}))
	require.NoError(t, err)
	assert.Equal(t, 10, result)
}

func TestCallUnknownMethod(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	_, err = ns.Call(context.Background(), "Missing", entity.NoParams)
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeMethodNotFound, rerr.Code)
}

func TestCallArityMismatchIsInvalidParams(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	_, err = ns.Call(context.Background(), "Add", entity.Positional(1))
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeInvalidParams, rerr.Code)
}

func TestCallHandlerErrorBecomesInternalError(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	_, err = ns.Call(context.Background(), "Boom", entity.NoParams)
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeInternalError, rerr.Code)
}

func TestCallRecoversHandlerPanic(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	_, err = ns.Call(context.Background(), "Panics", entity.NoParams)
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeInternalError, rerr.Code)
}

func TestNotifyPrefixedMethodDefaultsToNotificationKind(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)

	_, callErr := ns.Call(context.Background(), "NotifyTick", entity.Positional("x"))
	require.Error(t, callErr, "a notification-kind method must not be reachable through Call")

	ns.Notify(context.Background(), "NotifyTick", entity.Positional("x"))
}

func TestDecoratedModeOnlyExposesDeclaredMethods(t *testing.T) {
	ns, err := dispatch.New(declaredService{}, dispatch.ModeDecorated)
	require.NoError(t, err)

	result, err := ns.Call(context.Background(), "visible", entity.NoParams)
	require.NoError(t, err)
	assert.Equal(t, "seen", result)

	_, err = ns.Call(context.Background(), "Hidden", entity.NoParams)
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeMethodNotFound, rerr.Code)
}

func TestWithGuardRejectsDisallowedParams(t *testing.T) {
	ns, err := dispatch.New(calcService{}, dispatch.ModePublic)
	require.NoError(t, err)
	require.NoError(t, ns.WithGuard("Add", "params[0] > 0"))

	_, err = ns.Call(context.Background(), "Add", entity.Positional(-1, 3))
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.CodeInvalidParams, rerr.Code)

	result, err := ns.Call(context.Background(), "Add", entity.Positional(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, result)
}
