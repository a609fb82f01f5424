// Package ledger persists step completion as zero-byte marker files.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// MarkerSuffix is appended to a step name to form its marker file name.
const MarkerSuffix = ".done"

// ErrInvalidName is returned for names that cannot be used as a file name.
var ErrInvalidName = errors.New("ledger: invalid step name")

// MarkerLedger stores one <name>.done file per completed step in a single
// directory. It assumes one provisioning run at a time.
type MarkerLedger struct {
	dir string
}

// NewMarkerLedger creates a ledger rooted at dir.
func NewMarkerLedger(dir string) *MarkerLedger {
	return &MarkerLedger{dir: dir}
}

// Dir returns the directory holding the markers.
func (l *MarkerLedger) Dir() string {
	return l.dir
}

// Path returns the marker path for name.
func (l *MarkerLedger) Path(name string) string {
	return filepath.Join(l.dir, name+MarkerSuffix)
}

// IsDone reports whether the marker for name exists.
func (l *MarkerLedger) IsDone(name string) bool {
	if validateName(name) != nil {
		return false
	}
	_, err := os.Stat(l.Path(name))
	return err == nil
}

// MarkDone creates a marker for every name. Markers that already exist are
// left untouched.
func (l *MarkerLedger) MarkDone(names ...string) error {
	for _, name := range names {
		if err := validateName(name); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("ledger: create %s: %w", l.dir, err)
	}

	for _, name := range names {
		f, err := os.OpenFile(l.Path(name), os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("ledger: mark %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("ledger: mark %s: %w", name, err)
		}
	}
	return nil
}

// Done lists the names of all recorded steps.
func (l *MarkerLedger) Done() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), MarkerSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), MarkerSuffix))
	}
	return names, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

var _ ports.Ledger = (*MarkerLedger)(nil)
