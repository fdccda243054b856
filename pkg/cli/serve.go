package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/slnreload/pkg/api"
	"github.com/platinummonkey/slnreload/pkg/async"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/watch"
)

type stringList []string

func (l *stringList) String() string { return fmt.Sprint([]string(*l)) }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newServeCommand(streams ioPair) *Command {
	cmd := &Command{
		Name:        "serve",
		Description: "Serve the closure and reload API over HTTP",
		Flags:       flag.NewFlagSet("serve", flag.ContinueOnError),
	}
	cmd.Flags.SetOutput(streams.err)

	common := addCommonFlags(cmd.Flags)
	addr := cmd.Flags.String("addr", "", "Listen address (default from config)")
	var watchRoots stringList
	cmd.Flags.Var(&watchRoots, "watch", "Also keep the closure of this root loaded (repeatable)")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		cfg, err := common.load()
		if err != nil {
			return err
		}
		if *addr != "" {
			cfg.Server.Addr = *addr
		}
		rt, err := newRuntime(cfg, streams.err, true)
		if err != nil {
			return err
		}
		sol := rt.filter.Solution()

		health := observability.NewHealthChecker(Version)
		health.AddCheck("solution", true, func(ctx context.Context) error {
			_, err := os.Stat(sol.Path.OS())
			return err
		})
		health.AddCheck("filter", false, func(ctx context.Context) error {
			if rt.filter.Dirty() {
				return errors.New("filter has unsaved changes")
			}
			return nil
		})

		opts := api.Options{Solution: sol.Path, Health: health}
		if cfg.Observability.MetricsEnabled {
			opts.Registry = rt.registry
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		httpServer := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      api.NewServer(rt.resolver, rt.service, opts, rt.log, rt.metrics),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			BaseContext: func(net.Listener) context.Context {
				return observability.WithLogger(context.Background(), rt.log)
			},
		}

		shutdown := observability.NewShutdownManager(rt.log, httpServer, cfg.Server.ShutdownTimeout)

		if len(watchRoots) > 0 {
			w, err := watch.New(rt.service, watch.Options{
				Roots:   watchRoots,
				Delay:   cfg.Watch.Delay,
				Timeout: cfg.Resolver.Timeout,
			}, rt.log)
			if err != nil {
				return err
			}
			watchCtx, stopWatch := context.WithCancel(ctx)
			done := async.SafeGo(watchCtx, rt.log, 0, "watcher", w.Run)
			shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
				stopWatch()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}

		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			if rt.filter.Dirty() {
				return rt.filter.Save()
			}
			return nil
		})

		var listenErr error
		served := async.SafeGo(ctx, rt.log, 0, "http server", func(context.Context) error {
			rt.log.WithFields(logrus.Fields{
				"addr":     cfg.Server.Addr,
				"solution": string(sol.Path),
				"filter":   string(rt.filter.Path()),
			}).Info("Starting slnreload API server")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				listenErr = err
				cancel()
				return err
			}
			return nil
		})

		err = shutdown.WaitForShutdown(ctx)
		<-served
		return errors.Join(listenErr, err)
	}

	return cmd
}
