package main

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/go-plugin"

	sinkrpc "hostblock/internal/modules/enforce/adapter/out/rpc"
	"hostblock/internal/modules/enforce/domain"
)

const defaultOutPath = "/tmp/hostblock-reference.list"

// server writes the expanded host list to a flat file, one host per line.
// It exists to exercise the sink protocol end to end; point other tooling
// (dnsmasq, firewall scripts) at the output file.
type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *sinkrpc.Empty) (*sinkrpc.Metadata, error) {
	return &sinkrpc.Metadata{Name: "reference", Version: "1.0.0"}, nil
}

func (s *server) Apply(_ context.Context, in *sinkrpc.ApplyRequest) (*sinkrpc.ApplyResponse, error) {
	entries := domain.Expand(in.Domains)
	hosts := make([]string, 0, len(entries))
	seen := map[string]bool{}
	for _, entry := range entries {
		if seen[entry.Host] {
			continue
		}
		seen[entry.Host] = true
		hosts = append(hosts, entry.Host)
	}
	body := strings.Join(hosts, "\n")
	if body != "" {
		body += "\n"
	}
	if err := os.WriteFile(outPath(), []byte(body), 0o644); err != nil {
		return nil, err
	}
	return &sinkrpc.ApplyResponse{AppliedHosts: int32(len(hosts))}, nil
}

func outPath() string {
	if path := os.Getenv("HOSTBLOCK_REFERENCE_OUT"); path != "" {
		return path
	}
	return defaultOutPath
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: sinkrpc.HandshakeConfig,
		Plugins:         sinkrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
