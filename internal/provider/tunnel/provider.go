// Package tunnel compiles the steps that install the public tunnel client
// when launching with a tunnel is enabled.
package tunnel

import (
	"path"
	"path/filepath"

	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Provider implements compiler.Provider for the tunnel client.
type Provider struct {
	fs          ports.FileSystem
	fetcher     ports.Fetcher
	tunnel      ports.TunnelProvider
	downloadDir string
}

// NewProvider creates a new tunnel provider. The client package is saved
// under downloadDir.
func NewProvider(fs ports.FileSystem, fetcher ports.Fetcher, tunnel ports.TunnelProvider, downloadDir string) *Provider {
	return &Provider{
		fs:          fs,
		fetcher:     fetcher,
		tunnel:      tunnel,
		downloadDir: downloadDir,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "tunnel"
}

// Compile returns the download and install steps, or nothing when the
// tunnel is disabled.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	cfg := ctx.Config()
	if !cfg.Launch().Tunnel {
		return nil, nil
	}

	source := ctx.Mirrors().TunnelPackage
	pkg := filepath.Join(p.downloadDir, path.Base(source))

	return []compiler.Step{
		&DownloadStep{
			id:      compiler.MustNewStepID("download-cloudflared"),
			url:     source,
			pkg:     pkg,
			retries: cfg.Retries(),
			fs:      p.fs,
			fetcher: p.fetcher,
			tunnel:  p.tunnel,
		},
		&InstallStep{
			id:     compiler.MustNewStepID("install-cloudflared"),
			pkg:    pkg,
			tunnel: p.tunnel,
		},
	}, nil
}
