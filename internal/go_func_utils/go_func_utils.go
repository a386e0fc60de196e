package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn in a new goroutine. A panic is written to logger with its
// stack before it is re-raised, since the terminal UI hides stderr.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

// SafeCall runs a best-effort side effect on the caller's goroutine.
// Errors and panics are logged under label and discarded.
func SafeCall(logger *log.Logger, label string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("%s: recovered panic: %v", label, r)
		}
	}()
	if err := fn(); err != nil {
		logger.Printf("%s: %v", label, err)
	}
}
