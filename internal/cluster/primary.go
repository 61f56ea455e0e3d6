package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"syscall"
)

// PrimaryConfig controls how many workers the primary forks and how
// it's invoked again as each worker.
type PrimaryConfig struct {
	// Workers is the worker count; 0 means "CPU count" per spec §6.3's
	// cluster.workers key.
	Workers int
	Logger  *slog.Logger
}

func (c *PrimaryConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Primary forks N worker processes (re-executing the current binary
// with WorkerEnvVar set) and restarts any worker that exits non-zero
// while the primary is not itself shutting down. The primary serves
// no requests itself.
type Primary struct {
	cfg   PrimaryConfig
	mu    sync.Mutex
	procs []*os.Process
}

func NewPrimary(cfg PrimaryConfig) *Primary {
	cfg.applyDefaults()
	return &Primary{cfg: cfg}
}

// Run forks Workers processes and blocks until ctx is canceled. On
// cancellation it signals every live worker to shut down gracefully
// and waits for all of them to exit before returning, matching spec
// §4.6.5's "primary exits once all workers are gone". A single
// goroutine (this one) owns the exited channel for the whole run, so
// the restart decision and the shutdown drain never race over the
// same exit notifications.
func (p *Primary) Run(ctx context.Context) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cluster: resolve executable: %w", err)
	}

	exited := make(chan int, p.cfg.Workers)
	outstanding := 0
	for i := 0; i < p.cfg.Workers; i++ {
		if err := p.spawn(self, exited); err != nil {
			return fmt.Errorf("cluster: spawn worker: %w", err)
		}
		outstanding++
	}

runLoop:
	for {
		select {
		case <-ctx.Done():
			break runLoop
		case code := <-exited:
			outstanding--
			if code != 0 {
				p.cfg.Logger.Warn("worker exited unexpectedly, restarting", "exit_code", code)
				if err := p.spawn(self, exited); err != nil {
					p.cfg.Logger.Error("failed to restart worker", "error", err)
					continue
				}
				outstanding++
			}
		}
	}

	p.signalAll(syscall.SIGTERM)
	for outstanding > 0 {
		<-exited
		outstanding--
	}
	return nil
}

func (p *Primary) spawn(self string, exited chan<- int) error {
	env := append(os.Environ(), WorkerEnvVar+"=1")
	proc, err := os.StartProcess(self, os.Args, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.procs = append(p.procs, proc)
	p.mu.Unlock()

	go func() {
		state, err := proc.Wait()
		code := -1
		if err == nil {
			code = state.ExitCode()
		}
		p.removeProc(proc)
		exited <- code
	}()

	return nil
}

func (p *Primary) removeProc(proc *os.Process) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.procs {
		if existing.Pid == proc.Pid {
			p.procs = append(p.procs[:i], p.procs[i+1:]...)
			break
		}
	}
}

func (p *Primary) signalAll(sig os.Signal) {
	p.mu.Lock()
	procs := append([]*os.Process(nil), p.procs...)
	p.mu.Unlock()

	for _, proc := range procs {
		_ = proc.Signal(sig)
	}
}
