package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds a single readiness probe.
const dialTimeout = 2 * time.Second

// ErrNotReady is returned when the service does not accept connections
// within the readiness timeout.
var ErrNotReady = errors.New("service did not become ready")

// WaitReady polls address with a connect-and-close probe every interval until
// a connection succeeds. It returns an error wrapping ErrNotReady once timeout
// elapses, or ctx's error when ctx ends first.
func WaitReady(ctx context.Context, address string, interval, timeout time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if probe(address) {
		return nil
	}

	for {
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s not reachable after %s", ErrNotReady, address, timeout)
		case <-ticker.C:
			if probe(address) {
				return nil
			}
		}
	}
}

func probe(address string) bool {
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
