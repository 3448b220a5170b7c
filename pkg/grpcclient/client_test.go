package grpcclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewClientRequiresTarget(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)

	conn, err := NewClient(ClientConfig{Target: "passthrough:///localhost:1"})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestUnaryClientInterceptorRetries(t *testing.T) {
	cases := []struct {
		name      string
		failures  []codes.Code
		wantCalls int
		wantCode  codes.Code
	}{
		{"succeeds after unavailable", []codes.Code{codes.Unavailable}, 2, codes.OK},
		{"gives up after max retries", []codes.Code{codes.Unavailable, codes.Unavailable, codes.Unavailable}, 3, codes.Unavailable},
		{"does not retry invalid argument", []codes.Code{codes.InvalidArgument}, 1, codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error {
				defer func() { calls++ }()
				if calls < len(tc.failures) {
					return status.Error(tc.failures[calls], "fail")
				}
				return nil
			}

			err := unaryClientInterceptor(ClientConfig{MaxRetries: 2})(context.Background(), "/svc/m", nil, nil, nil, invoker)
			assert.Equal(t, tc.wantCode, status.Code(err))
			assert.Equal(t, tc.wantCalls, calls)
		})
	}
}
