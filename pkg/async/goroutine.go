package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement (skipped when timeout is zero)
// - Error logging
//
// The returned channel is closed once the function has returned.
//
// Example:
//
//	done := SafeGo(ctx, logger, 30*time.Second, "watch refresh", func(ctx context.Context) error {
//	    return w.refresh(ctx)
//	})
//	<-done
func SafeGo(parentCtx context.Context, log *logrus.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if log == nil {
		log = logrus.New()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"task":  taskName,
					"panic": fmt.Sprint(r),
					"stack": string(debug.Stack()),
				}).Error("Panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			log.WithError(err).WithField("task", taskName).Warn("Background task failed")
		}
	}()

	return done
}
