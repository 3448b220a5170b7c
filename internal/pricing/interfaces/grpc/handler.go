package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/pkg/logger"
)

// Handler gRPC 处理器
type Handler struct {
	app *application.PricingService
}

// NewHandler 创建 gRPC 处理器实例
func NewHandler(app *application.PricingService) *Handler {
	return &Handler{app: app}
}

// PriceOptionRequest 请求字段
type PriceOptionRequest struct {
	Symbol          string         `json:"symbol"`
	OptionType      string         `json:"option_type"`
	ExerciseStyle   string         `json:"exercise_style"`
	StrikePrice     float64        `json:"strike_price"`
	Maturity        float64        `json:"maturity"`
	UnderlyingPrice float64        `json:"underlying_price"`
	Volatility      float64        `json:"volatility"`
	RiskFreeRate    float64        `json:"risk_free_rate"`
	Steps           int            `json:"steps"`
	Barrier         *BarrierFields `json:"barrier,omitempty"`
}

// BarrierFields 障碍条款字段
type BarrierFields struct {
	Level     float64 `json:"level"`
	Direction string  `json:"direction"`
	Knock     string  `json:"knock"`
}

// ToCommand 转换为应用层命令
func (r PriceOptionRequest) ToCommand() application.PriceOptionCommand {
	cmd := application.PriceOptionCommand{
		Symbol:          r.Symbol,
		OptionType:      r.OptionType,
		ExerciseStyle:   r.ExerciseStyle,
		StrikePrice:     r.StrikePrice,
		Maturity:        r.Maturity,
		UnderlyingPrice: r.UnderlyingPrice,
		Volatility:      r.Volatility,
		RiskFreeRate:    r.RiskFreeRate,
		Steps:           r.Steps,
	}
	if r.Barrier != nil {
		cmd.Barrier = &application.BarrierCommand{
			Level:     r.Barrier.Level,
			Direction: r.Barrier.Direction,
			Knock:     r.Barrier.Knock,
		}
	}
	return cmd
}

// PriceOption 期权定价
func (h *Handler) PriceOption(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in PriceOptionRequest
	if err := FromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	res, err := h.app.PriceOption(ctx, in.ToCommand())
	if err != nil {
		if application.IsClientError(err) {
			return nil, status.Errorf(codes.InvalidArgument, "%s: %v", application.ErrorCode(err), err)
		}
		logger.Error(ctx, "failed to price option", "symbol", in.Symbol, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := ToStruct(application.ToPriceOptionDTO(res))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// ToStruct 经 JSON 把任意值转换为 Struct
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// FromStruct 经 JSON 把 Struct 解码到 v
func FromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
