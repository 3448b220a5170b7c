// lattice 在终端打印二叉树定价网格
// 默认本地计算；指定 --server 时调用远端 gRPC 服务。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
	grpcserver "github.com/wyfcoding/latticepricing/internal/pricing/interfaces/grpc"
	"github.com/wyfcoding/latticepricing/pkg/grpcclient"
)

type options struct {
	symbol     string
	kind       string
	style      string
	strike     float64
	maturity   float64
	spot       float64
	volatility float64
	rate       float64
	steps      int
	barrier    float64
	direction  string
	knock      string
	server     string
	timeout    time.Duration
	asJSON     bool
}

func main() {
	var o options
	fs := pflag.NewFlagSet("lattice", pflag.ExitOnError)
	fs.StringVar(&o.symbol, "symbol", "CLI", "contract symbol (remote mode only)")
	fs.StringVarP(&o.kind, "type", "t", "CALL", "option type: CALL or PUT")
	fs.StringVarP(&o.style, "style", "s", "EUROPEAN", "exercise style: EUROPEAN or AMERICAN")
	fs.Float64VarP(&o.strike, "strike", "k", 100, "strike price")
	fs.Float64VarP(&o.maturity, "maturity", "T", 1, "time to maturity in years")
	fs.Float64Var(&o.spot, "spot", 100, "underlying spot price")
	fs.Float64Var(&o.volatility, "vol", 0.2, "annualized volatility")
	fs.Float64VarP(&o.rate, "rate", "r", 0.05, "continuously compounded risk-free rate")
	fs.IntVarP(&o.steps, "steps", "n", 5, "number of time steps")
	fs.Float64Var(&o.barrier, "barrier", 0, "barrier level, 0 for a vanilla option")
	fs.StringVar(&o.direction, "barrier-dir", "UP", "barrier direction: UP or DOWN")
	fs.StringVar(&o.knock, "knock", "OUT", "barrier knock kind: IN or OUT")
	fs.StringVar(&o.server, "server", "", "price through a remote pricing gRPC server at host:port")
	fs.DurationVar(&o.timeout, "timeout", 10*time.Second, "remote call timeout")
	fs.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	_ = fs.Parse(os.Args[1:])

	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "lattice:", err)
		os.Exit(1)
	}
}

func (o options) command() application.PriceOptionCommand {
	cmd := application.PriceOptionCommand{
		Symbol:          o.symbol,
		OptionType:      o.kind,
		ExerciseStyle:   o.style,
		StrikePrice:     o.strike,
		Maturity:        o.maturity,
		UnderlyingPrice: o.spot,
		Volatility:      o.volatility,
		RiskFreeRate:    o.rate,
		Steps:           o.steps,
	}
	if o.barrier != 0 {
		cmd.Barrier = &application.BarrierCommand{Level: o.barrier, Direction: o.direction, Knock: o.knock}
	}
	return cmd
}

func run(ctx context.Context, o options, w io.Writer) error {
	var (
		dto *application.PriceOptionDTO
		err error
	)
	if o.server != "" {
		dto, err = priceRemote(ctx, o)
	} else {
		dto, err = priceLocal(o)
	}
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dto)
	}
	return render(w, dto)
}

// priceLocal 不经过持久化，直接调用定价引擎
func priceLocal(o options) (*application.PriceOptionDTO, error) {
	cmd := o.command()
	kind, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	style, err := domain.ParseExerciseStyle(cmd.ExerciseStyle)
	if err != nil {
		return nil, err
	}

	var spec domain.PayoffSpec
	if cmd.Barrier == nil {
		spec, err = domain.NewVanillaSpec(kind, style, cmd.StrikePrice, cmd.Maturity)
	} else {
		var dir domain.BarrierDirection
		var knock domain.KnockKind
		if dir, err = domain.ParseBarrierDirection(cmd.Barrier.Direction); err != nil {
			return nil, err
		}
		if knock, err = domain.ParseKnockKind(cmd.Barrier.Knock); err != nil {
			return nil, err
		}
		spec, err = domain.NewBarrierSpec(kind, style, cmd.StrikePrice, cmd.Maturity,
			domain.Barrier{Level: cmd.Barrier.Level, Direction: dir, Knock: knock})
	}
	if err != nil {
		return nil, err
	}

	v, err := domain.NewBinomialPricer(domain.DefaultMaxSteps).Price(spec, domain.MarketParameters{
		Volatility: cmd.Volatility,
		Spot:       cmd.UnderlyingPrice,
		Rate:       cmd.RiskFreeRate,
		Steps:      cmd.Steps,
	})
	if err != nil {
		return nil, err
	}
	return application.ToPriceOptionDTO(&application.PriceOptionResult{Valuation: v}), nil
}

func priceRemote(ctx context.Context, o options) (*application.PriceOptionDTO, error) {
	conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
		Target:         o.server,
		ConnTimeout:    5 * time.Second,
		RequestTimeout: o.timeout,
		MaxRetries:     2,
		RetryDelay:     200 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req, err := grpcserver.ToStruct(grpcserver.PriceOptionRequest{
		Symbol:          o.symbol,
		OptionType:      o.kind,
		ExerciseStyle:   o.style,
		StrikePrice:     o.strike,
		Maturity:        o.maturity,
		UnderlyingPrice: o.spot,
		Volatility:      o.volatility,
		RiskFreeRate:    o.rate,
		Steps:           o.steps,
		Barrier:         o.barrierFields(),
	})
	if err != nil {
		return nil, err
	}

	resp, err := grpcserver.NewLatticePricingClient(conn).PriceOption(ctx, req)
	if err != nil {
		return nil, err
	}
	var dto application.PriceOptionDTO
	if err := grpcserver.FromStruct(resp, &dto); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &dto, nil
}

func (o options) barrierFields() *grpcserver.BarrierFields {
	if o.barrier == 0 {
		return nil
	}
	return &grpcserver.BarrierFields{Level: o.barrier, Direction: o.direction, Knock: o.knock}
}

func render(w io.Writer, dto *application.PriceOptionDTO) error {
	p := dto.Params
	fmt.Fprintf(w, "price    %.6f\n", dto.Price)
	fmt.Fprintf(w, "dt=%.6f u=%.6f d=%.6f q=%.6f discount=%.6f\n\n", p.Dt, p.Up, p.Down, p.Q, p.Discount)

	sections := []struct {
		title string
		rows  [][]float64
	}{
		{"underlying", dto.UnderlyingLattice},
		{"value", dto.ValueLattice},
		{"after", dto.AfterLattice},
	}
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		l, err := domain.BuildLattice(len(s.rows), func(row, col int) float64 { return s.rows[row][col] })
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s lattice:\n%s\n", s.title, l.String())
	}
	if len(dto.CrossedNodes) > 0 {
		fmt.Fprintf(w, "barrier crossed at %d nodes\n", len(dto.CrossedNodes))
	}
	return nil
}
