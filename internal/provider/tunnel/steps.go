package tunnel

import (
	"github.com/felixgeelhaar/comfyboot/internal/domain/compiler"
	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// DownloadStep fetches the client package.
type DownloadStep struct {
	id      compiler.StepID
	url     string
	pkg     string
	retries int
	fs      ports.FileSystem
	fetcher ports.Fetcher
	tunnel  ports.TunnelProvider
}

// ID returns the step identifier.
func (s *DownloadStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *DownloadStep) Description() string {
	return "Downloading cloudflared"
}

// Phase returns the setup phase.
func (s *DownloadStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Artifact returns the package path.
func (s *DownloadStep) Artifact() string {
	return s.pkg
}

// Retries returns the attempt bound.
func (s *DownloadStep) Retries() int {
	return s.retries
}

// Check reports satisfied when the client is already installed or the
// package is on disk.
func (s *DownloadStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.tunnel.Installed() || s.fs.Exists(s.pkg) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DownloadStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "package", s.pkg, s.url), nil
}

// Apply downloads the package.
func (s *DownloadStep) Apply(ctx compiler.RunContext) error {
	return s.fetcher.Fetch(ctx.Context(), s.Description(), s.url, s.pkg)
}

// Explain provides a human-readable explanation.
func (s *DownloadStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Download the tunnel client",
		"Fetches the cloudflared Debian package used to expose ComfyUI through a quick tunnel.",
		[]string{"https://developers.cloudflare.com/cloudflare-one/connections/connect-networks/do-more-with-tunnels/trycloudflare/"},
	)
}

// InstallStep installs the downloaded client package.
type InstallStep struct {
	id     compiler.StepID
	pkg    string
	tunnel ports.TunnelProvider
}

// ID returns the step identifier.
func (s *InstallStep) ID() compiler.StepID {
	return s.id
}

// Description returns the progress label.
func (s *InstallStep) Description() string {
	return "Installing cloudflared"
}

// Phase returns the setup phase.
func (s *InstallStep) Phase() compiler.Phase {
	return compiler.PhaseSetup
}

// Check reports satisfied when the client is on PATH.
func (s *InstallStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.tunnel.Installed() {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *InstallStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeRun, "package", "cloudflared", "dpkg -i "+s.pkg), nil
}

// Apply installs the package.
func (s *InstallStep) Apply(ctx compiler.RunContext) error {
	return s.tunnel.Install(ctx.Context(), s.pkg)
}

// Explain provides a human-readable explanation.
func (s *InstallStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Install the tunnel client",
		"Installs cloudflared from the downloaded package with dpkg.",
		nil,
	)
}
