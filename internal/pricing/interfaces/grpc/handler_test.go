package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

type nopRepo struct{ saved int }

func (r *nopRepo) WithTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
func (r *nopRepo) SavePricingResult(context.Context, *domain.PricingResult) error {
	r.saved++
	return nil
}
func (r *nopRepo) GetLatestPricingResult(context.Context, string) (*domain.PricingResult, error) {
	return nil, nil
}
func (r *nopRepo) GetPricingResultHistory(context.Context, string, int) ([]*domain.PricingResult, error) {
	return nil, nil
}

func newTestClient(t *testing.T) (*LatticePricingClient, *nopRepo) {
	t.Helper()
	repo := &nopRepo{}
	svc := application.NewPricingService(
		application.NewPricingCommandService(domain.NewBinomialPricer(0), repo, nil, nil),
		application.NewPricingQueryService(repo, nil, 0),
	)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(NewHandler(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewLatticePricingClient(conn), repo
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestPriceOptionOverGRPC(t *testing.T) {
	client, repo := newTestClient(t)

	resp, err := client.PriceOption(context.Background(), mustStruct(t, map[string]any{
		"symbol":           "AAPL-C100",
		"option_type":      "CALL",
		"exercise_style":   "EUROPEAN",
		"strike_price":     100,
		"maturity":         1,
		"underlying_price": 100,
		"volatility":       0.2,
		"risk_free_rate":   0.05,
		"steps":            2,
	}))
	require.NoError(t, err)

	var dto application.PriceOptionDTO
	require.NoError(t, FromStruct(resp, &dto))
	assert.InDelta(t, 9.540501338582947, dto.Price, 1e-9)
	assert.Len(t, dto.ValueLattice, 3)
	assert.Equal(t, 1, repo.saved)
}

func TestPriceOptionOverGRPCErrors(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.PriceOption(context.Background(), mustStruct(t, map[string]any{
		"symbol":         "X",
		"option_type":    "CALL",
		"exercise_style": "BERMUDAN",
	}))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "INVALID_STYLE")

	_, err = client.PriceOption(context.Background(), mustStruct(t, map[string]any{
		"symbol": "X",
		"steps":  "many",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStructRoundTrip(t *testing.T) {
	s, err := ToStruct(BarrierFields{Level: 110, Direction: "UP"})
	require.NoError(t, err)
	assert.Equal(t, 110.0, s.Fields["level"].GetNumberValue())

	var back BarrierFields
	require.NoError(t, FromStruct(s, &back))
	assert.Equal(t, "UP", back.Direction)
}
