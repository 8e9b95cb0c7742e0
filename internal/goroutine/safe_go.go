package goroutine

import (
	"runtime/debug"

	"github.com/gigsetu/gigsetu-backend/internal/logger"
)

// SafeGo runs fn in a goroutine and turns a panic into a logged error
// instead of a process crash.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.WithField("panic", r).
						WithField("stack", string(debug.Stack())).
						Error("recovered panic in background goroutine")
				}
			}
		}()
		fn()
	}()
}
