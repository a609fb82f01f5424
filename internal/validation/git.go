package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidGitRemote is returned for clone sources git should not be given.
var ErrInvalidGitRemote = errors.New("invalid git remote")

// scpRemote matches git's scp-like syntax, e.g. git@github.com:city96/ComfyUI-GGUF.git.
var scpRemote = regexp.MustCompile(`^[a-zA-Z0-9_.-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./-]+$`)

// ValidateGitRemoteURL accepts https URLs, scp-like SSH remotes, file://
// URLs and absolute local paths. The last two serve air-gapped mirrors of
// the node repositories.
func ValidateGitRemoteURL(remote string) error {
	if remote == "" {
		return ErrEmptyInput
	}
	if len(remote) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidGitRemote)
	}
	if strings.ContainsAny(remote, "\x00!") || containsShellMeta(remote) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, remote)
	}

	switch {
	case strings.HasPrefix(remote, "/"):
		return ValidatePath(remote)
	case scpRemote.MatchString(remote):
		return nil
	}

	u, err := url.Parse(remote)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidGitRemote, remote, err)
	}
	switch {
	case u.Scheme == "https" && u.Host != "" && len(strings.Trim(u.Path, "/")) > 0:
		return nil
	case u.Scheme == "file" && u.Host == "" && u.Path != "":
		return ValidatePath(u.Path)
	}
	return fmt.Errorf("%w: %q must be an https, ssh or local repository", ErrInvalidGitRemote, remote)
}

// ValidateGitPath checks a checkout directory. It must not start with '-'
// so git never reads it as an option.
func ValidateGitPath(dir string) error {
	if err := ValidatePath(dir); err != nil {
		return err
	}
	if len(dir) > 4096 {
		return fmt.Errorf("%w: path too long", ErrInvalidPath)
	}
	if strings.HasPrefix(dir, "-") || containsShellMeta(dir) {
		return fmt.Errorf("%w: %q", ErrCommandInjection, dir)
	}
	return nil
}

// RepoDirName returns the directory git clone creates for a remote, e.g.
// ComfyUI-GGUF for https://gitee.com/honwee/ComfyUI-GGUF.git.
func RepoDirName(remote string) string {
	remote = strings.TrimRight(remote, "/")
	if i := strings.LastIndexAny(remote, "/:"); i >= 0 {
		remote = remote[i+1:]
	}
	return strings.TrimSuffix(remote, ".git")
}
