package ports

import "context"

// Ledger records which provisioning steps have completed.
type Ledger interface {
	// IsDone reports whether a completion marker exists for name.
	IsDone(name string) bool
	// MarkDone records completion for every name. Existing markers are kept.
	MarkDone(names ...string) error
}

// Location is the result of a geolocation lookup.
type Location struct {
	CountryCode string
	Country     string
	Query       string
}

// Locator resolves the geographic location of this host.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// SourceControl clones and updates repositories.
type SourceControl interface {
	Clone(ctx context.Context, repoURL, dest string) error
	Pull(ctx context.Context, repoDir string) error
}

// PythonEnvironment manages an isolated interpreter environment.
type PythonEnvironment interface {
	// Root returns the environment directory.
	Root() string
	// Interpreter returns the environment's python executable.
	Interpreter() string
	// Bin returns the path of an executable installed in the environment.
	Bin(name string) string
	// BaseVersion reports the version of the interpreter used to create
	// the environment, e.g. "3.11.4".
	BaseVersion(ctx context.Context) (string, error)
	Create(ctx context.Context) error
	Install(ctx context.Context, description string, packages ...string) error
	RunScript(ctx context.Context, description, script, dir string) error
	// ConfiguredIndex returns the package index recorded in the
	// environment's pip configuration, or "" when none is set.
	ConfiguredIndex() string
	// ConfigureIndex records indexURL as the environment's package index.
	ConfigureIndex(indexURL string) error
}

// ModelSource identifies model weights on a model hub. Command, when set,
// replaces the structured fields with a raw shell command line.
type ModelSource struct {
	Repo    string
	File    string
	Dir     string
	Command string
}

// ModelDownloader retrieves model weight files.
type ModelDownloader interface {
	Download(ctx context.Context, description string, src ModelSource, workdir string) error
}

// Fetcher downloads a single URL to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, description, url, dest string) error
}

// TunnelProvider installs and runs a public tunnel client.
type TunnelProvider interface {
	// Installed reports whether the tunnel client is available.
	Installed() bool
	// Install installs the client from a downloaded package.
	Install(ctx context.Context, packagePath string) error
	// Open starts a tunnel to localURL. The returned process exposes the
	// client's error stream, on which the public URL is announced.
	Open(ctx context.Context, localURL string) (Process, error)
}
