// Package grpcapi exposes the calculator over gRPC. Messages are protobuf
// well-known types, so clients need no generated code beyond Client.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/exprcalc/pkg/calc"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
)

// CalculatorServer is the server API for the exprcalc.v1.Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvaluation(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// Server implements CalculatorServer on top of a calc.Service.
type Server struct {
	calc *calc.Service
	grpc *grpc.Server
}

// New creates a new gRPC server wrapping the given service.
func New(svc *calc.Service) *Server {
	srv := &Server{calc: svc}

	gs := grpc.NewServer()
	RegisterCalculatorServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Evaluate reads "expression" and the optional "resultType" from req.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	expression := fields["expression"].GetStringValue()
	resultType := fields["resultType"].GetStringValue()

	ev, err := s.calc.Evaluate(ctx, expression, resultType)
	if ev == nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", ev.Name, err)
	}
	return evaluationToProto(ev)
}

// GetEvaluation accepts a full "evaluations/<id>" name or a bare ID.
func (s *Server) GetEvaluation(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	ev, err := s.calc.Get(req.GetValue())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return evaluationToProto(ev)
}

func evaluationToProto(ev *store.Evaluation) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"name":       ev.Name,
		"expression": ev.Expression,
		"state":      string(ev.State),
		"results":    stringList(ev.Results),
		"postfix":    stringList(ev.Postfix),
		"createTime": ev.CreateTime.Format(time.RFC3339Nano),
	}
	if ev.ResultType != "" {
		m["resultType"] = ev.ResultType
	}
	if ev.Error != "" {
		m["error"] = ev.Error
	}

	pb, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode evaluation: %v", err)
	}
	return pb, nil
}

func stringList(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
