package platform

import (
	"log"
	"runtime"
)

// CommandWakeLock holds an inhibitor process for as long as the lock is held
type CommandWakeLock struct {
	name string
	args []string
	proc *process
}

func NewCommandWakeLock(logger *log.Logger, name string, args ...string) *CommandWakeLock {
	return &CommandWakeLock{name: name, args: args, proc: newProcess(logger, "WakeLock")}
}

// Acquire is a no-op while the lock is already held
func (w *CommandWakeLock) Acquire() error {
	if w.proc.running() {
		return nil
	}
	return w.proc.start(w.name, w.args...)
}

func (w *CommandWakeLock) Release() error {
	return w.proc.stop()
}

func (w *CommandWakeLock) Held() bool {
	return w.proc.running()
}

// newHostWakeLock picks the inhibitor for the running OS, nil when none is installed
func newHostWakeLock(logger *log.Logger) WakeLock {
	switch runtime.GOOS {
	case "darwin":
		if findTool("caffeinate") != "" {
			return NewCommandWakeLock(logger, "caffeinate", "-di")
		}
	case "linux":
		if findTool("systemd-inhibit") != "" {
			return NewCommandWakeLock(logger, "systemd-inhibit",
				"--what=idle:sleep", "--who=treadmill-timer", "--why=Workout in progress",
				"sleep", "infinity")
		}
	}
	return nil
}
