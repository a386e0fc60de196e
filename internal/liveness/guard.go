// Package liveness keeps the host awake and scheduling the app while a workout runs.
package liveness

import (
	"log"
	"sync"

	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/platform"
)

// Guard engages the keep-alive audio and the wake lock together.
// Both are best effort: a failure is logged and the workout goes on.
type Guard struct {
	logger    *log.Logger
	keepAlive platform.KeepAlive
	wakeLock  platform.WakeLock

	mu      sync.Mutex
	engaged bool
	closed  bool
}

// NewGuard returns a Guard; either capability may be nil
func NewGuard(logger *log.Logger, keepAlive platform.KeepAlive, wakeLock platform.WakeLock) *Guard {
	if logger == nil {
		panic("Guard: logger cannot be nil")
	}
	return &Guard{logger: logger, keepAlive: keepAlive, wakeLock: wakeLock}
}

// Update engages the guard when active and releases it otherwise.
// Repeated calls with the same value do nothing.
func (g *Guard) Update(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || active == g.engaged {
		return
	}
	if active {
		g.engage()
	} else {
		g.release()
	}
}

func (g *Guard) Engaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engaged
}

// Close releases everything; later updates are ignored
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.engaged {
		g.release()
	}
	g.closed = true
}

func (g *Guard) engage() {
	if g.keepAlive != nil {
		go_func_utils.SafeCall(g.logger, "Guard: keep-alive", g.keepAlive.Start)
	}
	if g.wakeLock != nil {
		go_func_utils.SafeCall(g.logger, "Guard: wake lock", g.wakeLock.Acquire)
	}
	g.engaged = true
	g.logger.Printf("Guard: Engaged")
}

func (g *Guard) release() {
	if g.keepAlive != nil {
		go_func_utils.SafeCall(g.logger, "Guard: keep-alive", g.keepAlive.Stop)
	}
	if g.wakeLock != nil {
		go_func_utils.SafeCall(g.logger, "Guard: wake lock", g.wakeLock.Release)
	}
	g.engaged = false
	g.logger.Printf("Guard: Released")
}
