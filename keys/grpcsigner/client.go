// Package grpcsigner moves the key-custody capability behind a gRPC service,
// so snapshots can be signed by a process that never releases its key. The
// client side satisfies signing.Signer and is interchangeable with a
// keys.LocalSigner.
package grpcsigner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"swarmos.dev/swarmhive/signing"
)

// Client implements signing.Signer over a Signer gRPC service.
//
// The remote address is fetched once at dial time; Address therefore never
// blocks. Sign is the single suspension point and honors both the caller's
// context and the optional per-RPC Timeout.
type Client struct {
	cc     *grpc.ClientConn
	client SignerClient
	addr   common.Address

	// Timeout applies per Sign RPC when non-zero.
	Timeout time.Duration
}

var _ signing.TextSigner = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial and address fetch when non-zero,
	// and is carried over to per-RPC calls.
	Timeout time.Duration
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	client := NewSignerClient(cc)

	reply, err := client.Address(ctx, &emptypb.Empty{})
	if err != nil {
		_ = cc.Close()
		return nil, fmt.Errorf("grpcsigner: fetch address: %w", err)
	}
	raw := reply.GetValue()
	if len(raw) != common.AddressLength {
		_ = cc.Close()
		return nil, fmt.Errorf("grpcsigner: address must be %d bytes, got %d", common.AddressLength, len(raw))
	}

	c := &Client{cc: cc, client: client, Timeout: opts.Timeout}
	copy(c.addr[:], raw)
	return c, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Address() common.Address { return c.addr }

func (c *Client) Sign(ctx context.Context, digest signing.Digest) (signing.Signature, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	reply, err := c.client.Sign(ctx, wrapperspb.Bytes(digest[:]))
	if err != nil {
		return signing.Signature{}, fmt.Errorf("grpcsigner: sign: %w", err)
	}
	raw := reply.GetValue()
	sig, err := signing.ParseSignature(raw)
	if err != nil {
		return signing.Signature{}, fmt.Errorf("grpcsigner: remote returned invalid signature: %w", err)
	}
	return sig, nil
}

// SignText signs a plain-text message remotely, satisfying signing.TextSigner.
func (c *Client) SignText(ctx context.Context, message string) (signing.Signature, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	reply, err := c.client.SignText(ctx, wrapperspb.String(message))
	if err != nil {
		return signing.Signature{}, fmt.Errorf("grpcsigner: sign text: %w", err)
	}
	raw := reply.GetValue()
	sig, err := signing.ParseSignature(raw)
	if err != nil {
		return signing.Signature{}, fmt.Errorf("grpcsigner: remote returned invalid signature: %w", err)
	}
	return sig, nil
}
