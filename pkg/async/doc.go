// Package async provides safe execution of background tasks.
//
// # Overview
//
// SafeGo runs a function in a goroutine with panic recovery, an optional
// timeout, context cancellation and logrus error logging, and returns a
// channel that closes when the task is done:
//
//	done := async.SafeGo(ctx, logger, 30*time.Second, "reload", func(ctx context.Context) error {
//		_, err := service.ReloadWithReferences(ctx, roots...)
//		return err
//	})
//	<-done
//
// # Related Packages
//
//   - pkg/watch: Runs each refresh through SafeGo
//   - pkg/cli: Runs the watcher beside the HTTP server
package async
