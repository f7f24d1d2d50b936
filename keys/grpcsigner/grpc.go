package grpcsigner

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SignerServer is the server API for the Signer gRPC service.
//
// We intentionally use protobuf well-known types so this package does not
// require a protoc/codegen toolchain.
//
// Proto definition: signer.proto.
type SignerServer interface {
	// Address returns the 20-byte identity of the held key.
	Address(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	// Sign takes a 32-byte digest and returns a 65-byte recoverable signature.
	Sign(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	// SignText takes a plain-text message and returns a 65-byte recoverable
	// signature over its EIP-191 prefixed hash.
	SignText(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedSignerServer can be embedded to have forward compatible implementations.
type UnimplementedSignerServer struct{}

func (UnimplementedSignerServer) Address(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Address not implemented")
}
func (UnimplementedSignerServer) Sign(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Sign not implemented")
}
func (UnimplementedSignerServer) SignText(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SignText not implemented")
}

// RegisterSignerServer registers the Signer service on a gRPC server.
func RegisterSignerServer(s grpc.ServiceRegistrar, srv SignerServer) {
	s.RegisterService(&Signer_ServiceDesc, srv)
}

// SignerClient is the client API for the Signer gRPC service.
type SignerClient interface {
	Address(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Sign(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	SignText(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type signerClient struct{ cc grpc.ClientConnInterface }

func NewSignerClient(cc grpc.ClientConnInterface) SignerClient { return &signerClient{cc: cc} }

func (c *signerClient) Address(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/Address", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signerClient) Sign(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/Sign", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signerClient) SignText(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/SignText", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Signer_Address_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignerServer).Address(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/Address"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignerServer).Address(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Signer_Sign_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignerServer).Sign(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/Sign"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignerServer).Sign(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Signer_SignText_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SignerServer).SignText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swarmos.swarmhive.keys.grpcsigner.v1.Signer/SignText"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SignerServer).SignText(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Signer_ServiceDesc is the grpc.ServiceDesc for the Signer service.
var Signer_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "swarmos.swarmhive.keys.grpcsigner.v1.Signer",
	HandlerType: (*SignerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Address", Handler: _Signer_Address_Handler},
		{MethodName: "Sign", Handler: _Signer_Sign_Handler},
		{MethodName: "SignText", Handler: _Signer_SignText_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "signer.proto",
}
