package platform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"

	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
)

// process owns at most one long-running child process
type process struct {
	logger *log.Logger
	label  string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

func newProcess(logger *log.Logger, label string) *process {
	return &process{logger: logger, label: label}
}

// start replaces any running child with name args
func (p *process) start(name string, args ...string) error {
	if err := p.stop(); err != nil {
		return err
	}

	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: start %s: %w", p.label, name, err)
	}
	done := make(chan struct{})

	p.mu.Lock()
	p.cmd, p.done = cmd, done
	p.mu.Unlock()

	go_func_utils.SafeGo(p.logger, func() {
		_ = cmd.Wait()
		close(done)
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd, p.done = nil, nil
		}
		p.mu.Unlock()
	})
	return nil
}

// stop kills the child, if any, and waits for it to be reaped
func (p *process) stop() error {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.cmd, p.done = nil, nil
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%s: kill: %w", p.label, err)
	}
	<-done
	return nil
}

func (p *process) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// spawn starts a short-lived child and reaps it in the background
func spawn(logger *log.Logger, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go_func_utils.SafeGo(logger, func() {
		if err := cmd.Wait(); err != nil {
			logger.Printf("Platform: %s exited: %v", name, err)
		}
	})
	return nil
}

// findTool returns the first candidate present on PATH, or ""
func findTool(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := exec.LookPath(c); err == nil {
			return c
		}
	}
	return ""
}
