// Package cluster implements C6's process topology: a primary process
// that forks N worker processes, all binding the same listening
// address via SO_REUSEPORT so the kernel load-balances accepted
// connections, realizing spec §4.6.1 with the real OS facility
// Node's cluster module itself relies on. There is no goroutine-based
// emulation of this; golang.org/x/sys/unix.SetsockoptInt is the actual
// mechanism.
package cluster

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// WorkerEnvVar, when set in a child process's environment, marks it
// as a worker rather than the primary that spawned it.
const WorkerEnvVar = "ABRSEARCH_CLUSTER_WORKER"

// Listen opens a TCP listener on addr with SO_REUSEPORT set, so
// multiple worker processes can each bind the same address and let
// the kernel distribute accepted connections across them.
func Listen(network, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	l, err := lc.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, fmt.Errorf("cluster: listen %s: %w", addr, err)
	}
	return l, nil
}
