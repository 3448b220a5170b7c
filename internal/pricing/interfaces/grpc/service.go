// Package grpc 暴露定价 gRPC 服务
// 消息使用 google.protobuf.Struct，字段与 HTTP JSON 一致。
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName 服务全名
	ServiceName = "pricing.v1.LatticePricingService"
	// PriceOptionMethod PriceOption 完整方法名
	PriceOptionMethod = "/" + ServiceName + "/PriceOption"
)

// LatticePricingServer 服务端接口
type LatticePricingServer interface {
	PriceOption(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc 服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LatticePricingServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PriceOption",
			Handler:    priceOptionHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricing/v1/lattice_pricing.proto",
}

// RegisterLatticePricingServer 注册服务实现
func RegisterLatticePricingServer(s grpc.ServiceRegistrar, srv LatticePricingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func priceOptionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LatticePricingServer).PriceOption(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PriceOptionMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LatticePricingServer).PriceOption(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// LatticePricingClient 客户端
type LatticePricingClient struct {
	cc grpc.ClientConnInterface
}

// NewLatticePricingClient 创建客户端
func NewLatticePricingClient(cc grpc.ClientConnInterface) *LatticePricingClient {
	return &LatticePricingClient{cc: cc}
}

// PriceOption 远程定价
func (c *LatticePricingClient) PriceOption(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PriceOptionMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
