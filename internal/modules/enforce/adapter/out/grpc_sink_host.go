package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	sinkrpc "hostblock/internal/modules/enforce/adapter/out/rpc"
	"hostblock/internal/modules/enforce/domain"
	enforceout "hostblock/internal/modules/enforce/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCSinkHost launches a sink subprocess per call. Sinks are expected to be
// cheap to start; keeping them down between ticks means a crashed sink never
// wedges the daemon.
type GRPCSinkHost struct{}

func NewGRPCSinkHost() enforceout.SinkHost {
	return &GRPCSinkHost{}
}

func (h *GRPCSinkHost) GetMetadata(ctx context.Context, manifest domain.SinkManifest) (domain.SinkMetadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.SinkMetadata{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.SinkMetadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.SinkMetadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCSinkHost) Apply(ctx context.Context, manifest domain.SinkManifest, blocked []string) error {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if _, err := client.Apply(callCtx, &sinkrpc.ApplyRequest{Domains: blocked}); err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: sink %s", domain.ErrSinkTimeout, manifest.Name)
		}
		return fmt.Errorf("apply blocklist: %w", err)
	}
	return nil
}

func (h *GRPCSinkHost) connect(manifest domain.SinkManifest) (sinkrpc.SinkClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  sinkrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          sinkrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start sink client: %w", err)
	}
	raw, err := rpcClient.Dispense(sinkrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense sink: %w", err)
	}
	typed, ok := raw.(sinkrpc.SinkClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("sink rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
