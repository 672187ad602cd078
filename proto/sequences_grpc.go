// Package proto describes the sqnz.Sequences gRPC service.
//
// The service is written by hand rather than generated: requests are
// google.protobuf.Struct values carrying the string fields "project" and
// "tag", and replies are google.protobuf.UInt64Value.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	Sequences_Peek_FullMethodName    = "/sqnz.Sequences/Peek"
	Sequences_Consume_FullMethodName = "/sqnz.Sequences/Consume"
)

// NewCounterRequest builds the request identifying a counter.
func NewCounterRequest(project, tag string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"project": structpb.NewStringValue(project),
		"tag":     structpb.NewStringValue(tag),
	}}
}

// CounterFromRequest extracts project and tag, failing with InvalidArgument
// when either is missing or not a string.
func CounterFromRequest(req *structpb.Struct) (project, tag string, err error) {
	project, ok := stringField(req, "project")
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "project must be a string")
	}
	tag, ok = stringField(req, "tag")
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "tag must be a string")
	}
	return project, tag, nil
}

func stringField(req *structpb.Struct, name string) (string, bool) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", false
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

type SequencesClient interface {
	Peek(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	Consume(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
}

type sequencesClient struct {
	cc grpc.ClientConnInterface
}

func NewSequencesClient(cc grpc.ClientConnInterface) SequencesClient {
	return &sequencesClient{cc}
}

func (c *sequencesClient) Peek(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Sequences_Peek_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sequencesClient) Consume(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Sequences_Consume_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type SequencesServer interface {
	Peek(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
	Consume(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
}

// UnimplementedSequencesServer can be embedded to have forward compatible implementations.
type UnimplementedSequencesServer struct{}

func (UnimplementedSequencesServer) Peek(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Peek not implemented")
}

func (UnimplementedSequencesServer) Consume(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Consume not implemented")
}

func RegisterSequencesServer(s grpc.ServiceRegistrar, srv SequencesServer) {
	s.RegisterService(&Sequences_ServiceDesc, srv)
}

func _Sequences_Peek_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SequencesServer).Peek(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Sequences_Peek_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SequencesServer).Peek(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sequences_Consume_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SequencesServer).Consume(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Sequences_Consume_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SequencesServer).Consume(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var Sequences_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "sqnz.Sequences",
	HandlerType: (*SequencesServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Peek",
			Handler:    _Sequences_Peek_Handler,
		},
		{
			MethodName: "Consume",
			Handler:    _Sequences_Consume_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sqnz/sequences.proto",
}
