package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "hostblock"
	serviceName       = "hostblock.sink.v1.EnforcementSink"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodApply       = "/" + serviceName + "/Apply"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "HOSTBLOCK_PLUGIN",
	MagicCookieValue: "hostblock",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ApplyRequest struct {
	// Domains is the complete blocked set; sinks replace their previous
	// state rather than diffing.
	Domains []string `json:"domains"`
}

type ApplyResponse struct {
	AppliedHosts int32 `json:"applied_hosts"`
}

type SinkServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type SinkClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type sinkClient struct {
	conn *grpc.ClientConn
}

func NewSinkClient(conn *grpc.ClientConn) SinkClient {
	return &sinkClient{conn: conn}
}

func (c *sinkClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sinkClient) Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error) {
	out := &ApplyResponse{}
	if err := c.conn.Invoke(ctx, methodApply, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterSinkServer(server grpc.ServiceRegistrar, impl SinkServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*SinkServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Apply",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &ApplyRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Apply(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodApply}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*ApplyRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Apply(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/sink-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl SinkServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterSinkServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewSinkClient(conn), nil
}

func PluginMap(impl SinkServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
