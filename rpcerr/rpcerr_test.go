// file: rpcerr/rpcerr_test.go
package rpcerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/rpcerr"
)

func TestConstructorsSetReservedCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *rpcerr.Error
		code int
	}{
		{"parse error", rpcerr.ParseError(errors.New("bad bytes")), rpcerr.CodeParseError},
		{"invalid request", rpcerr.InvalidRequest(errors.New("bad shape")), rpcerr.CodeInvalidRequest},
		{"method not found", rpcerr.MethodNotFound("svc/Missing"), rpcerr.CodeMethodNotFound},
		{"invalid params", rpcerr.InvalidParams("svc/Echo", errors.New("arity")), rpcerr.CodeInvalidParams},
		{"internal error", rpcerr.InternalError(errors.New("boom")), rpcerr.CodeInternalError},
		{"timeout", rpcerr.Timeout("svc/Slow"), rpcerr.CodeTimeout},
		{"stream closed", rpcerr.StreamClosed(), rpcerr.CodeStreamClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.NotEmpty(t, tc.err.Message)
		})
	}
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	var err error = rpcerr.MethodNotFound("svc/Missing")
	assert.Contains(t, err.Error(), "method not found")
}

func TestToAndFromErrorDetailsRoundTrip(t *testing.T) {
	original := rpcerr.InvalidParams("svc/Echo", errors.New("wrong type"))
	details := original.ToErrorDetails()
	assert.Equal(t, original.Code, details.Code)
	assert.Equal(t, original.Message, details.Message)

	reconstructed := rpcerr.FromErrorDetails(details)
	assert.Equal(t, original.Code, reconstructed.Code)
	assert.Equal(t, original.Message, reconstructed.Message)
}

func TestFromErrorDetailsPassesThroughUnreservedCode(t *testing.T) {
	d := entity.ErrorDetails{Code: -31000, Message: "app-specific"}
	got := rpcerr.FromErrorDetails(d)
	assert.Equal(t, -31000, got.Code)
}

func TestTimeoutAndStreamClosedCodesAreDistinctFromReserved(t *testing.T) {
	assert.True(t, rpcerr.CodeTimeout >= rpcerr.ServerErrorLow && rpcerr.CodeTimeout <= rpcerr.ServerErrorHigh)
	assert.True(t, rpcerr.CodeStreamClosed >= rpcerr.ServerErrorLow && rpcerr.CodeStreamClosed <= rpcerr.ServerErrorHigh)
}

func TestWrapAttachesCategoryAndCodeDetails(t *testing.T) {
	wrapped := rpcerr.Wrap(errors.New("disk full"), "storage", rpcerr.CodeInternalError)
	assert.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "disk full")
}
