package grpcsigner

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"swarmos.dev/swarmhive/signing"
)

// Server exposes a signing.Signer over the Signer gRPC service. The private
// key never crosses the wire: callers send digests and receive signatures.
type Server struct {
	UnimplementedSignerServer
	Signer signing.Signer
}

func (s *Server) Address(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Signer == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing signer")
	}
	addr := s.Signer.Address()
	return wrapperspb.Bytes(addr[:]), nil
}

func (s *Server) Sign(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Signer == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing signer")
	}
	raw := in.GetValue()
	if len(raw) != signing.DigestSize {
		return nil, status.Errorf(codes.InvalidArgument, "digest must be %d bytes, got %d", signing.DigestSize, len(raw))
	}
	var digest signing.Digest
	copy(digest[:], raw)

	sig, err := s.Signer.Sign(ctx, digest)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(sig[:]), nil
}

func (s *Server) SignText(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Signer == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing signer")
	}
	ts, ok := s.Signer.(signing.TextSigner)
	if !ok {
		return nil, status.Error(codes.Unimplemented, "signer cannot sign text")
	}
	sig, err := ts.SignText(ctx, in.GetValue())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(sig[:]), nil
}
