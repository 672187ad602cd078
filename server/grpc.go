package server

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/2opremio/sqnz/proto"
)

func NewGRPCServer(seqs Sequences, logger *zap.Logger) proto.SequencesServer {
	return &GRPCServer{
		seqs:   seqs,
		logger: logger,
	}
}

type GRPCServer struct {
	seqs   Sequences
	logger *zap.Logger
	proto.UnimplementedSequencesServer
}

func (g *GRPCServer) Peek(_ context.Context, request *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	project, tag, err := proto.CounterFromRequest(request)
	if err != nil {
		return nil, err
	}
	v, err := g.seqs.Peek(project, tag)
	if err != nil {
		return nil, g.fail("could not peek at sequence", project, tag, err)
	}
	return wrapperspb.UInt64(v), nil
}

func (g *GRPCServer) Consume(_ context.Context, request *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	project, tag, err := proto.CounterFromRequest(request)
	if err != nil {
		return nil, err
	}
	v, err := g.seqs.Consume(project, tag)
	if err != nil {
		return nil, g.fail("could not consume sequence", project, tag, err)
	}
	return wrapperspb.UInt64(v), nil
}

func (g *GRPCServer) fail(msg, project, tag string, err error) error {
	g.logger.Error(msg, zap.String("project", project), zap.String("tag", tag), zap.Error(err))
	return status.Errorf(codes.Internal, "%s: %v", msg, err)
}
