// Command connector calls URLs or shell commands through the resilient connector pipeline and
// prints one JSON line per call. With --serve it keeps running and exposes
// the status API.
//
//	connector -c config.yml -e users /users/1 /users/2
//	connector --exec "uptime" "df -h"
//	connector --serve
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/connector/bootstrap"
	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/config"
	"github.com/kbukum/connector/connector"
	"github.com/kbukum/connector/httpclient"
	"github.com/kbukum/connector/logger"
	"github.com/kbukum/connector/observability"
	"github.com/kbukum/connector/redis"
	"github.com/kbukum/connector/server"
	"github.com/kbukum/connector/version"
)

const serviceName = "connector"

const (
	exitOK     = 0
	exitError  = 1
	exitFailed = 2
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.StringP("config", "c", "", "path to config.yml")
	envFile := fs.String("env-file", "", "path to a .env file")
	endpointName := fs.StringP("endpoint", "e", "default", "endpoint whose policy guards the calls")
	serve := fs.Bool("serve", false, "keep running with the status server after the calls complete")
	withBody := fs.Bool("body", false, "include response bodies in the output")
	shell := fs.Bool("exec", false, "treat targets as shell command lines instead of URLs")
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <url-or-path>...\n\n", serviceName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.Get().String())
		return exitOK
	}
	targets := fs.Args()
	if len(targets) == 0 && !*serve {
		fs.Usage()
		return exitError
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	var cfg Config
	if err := config.Load(serviceName, &cfg, opts...); err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitError
	}
	if *serve {
		cfg.Server.Enabled = true
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}

	ctx := context.Background()
	flush, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Get().Short(), cfg.Environment)
	if err != nil {
		app.Logger.Warn("Telemetry disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := flush(flushCtx); err != nil {
			app.Logger.Warn("Telemetry flush failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	conn, err := wire(app)
	if err != nil {
		app.Logger.Error("Wiring failed", logger.Fields(logger.FieldError, err.Error()))
		return exitError
	}
	build := commandBuilder(shellTargets)
	if !*shell {
		client, err := httpclient.New(cfg.HTTP)
		if err != nil {
			app.Logger.Error("HTTP client", logger.Fields(logger.FieldError, err.Error()))
			return exitError
		}
		build = httpTargets(client)
	}

	failed := 0
	endpoint := cfg.Endpoint(*endpointName)
	err = app.RunTask(ctx, func(ctx context.Context) error {
		if len(targets) > 0 {
			n, err := fetch(ctx, conn, build, endpoint, targets, *withBody, stdout)
			failed = n
			if err != nil {
				return err
			}
		}
		if *serve {
			<-ctx.Done()
		}
		return nil
	})
	if err != nil {
		app.Logger.Error("Run failed", logger.Fields(logger.FieldError, err.Error()))
		return exitError
	}
	if failed > 0 {
		return exitFailed
	}
	return exitOK
}

// wire builds the connector and registers every component on app. Redis
// backs the cache when enabled; otherwise stores are in memory.
func wire(app *bootstrap.App[*Config]) (*connector.Connector, error) {
	cfg := app.Cfg

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, err
	}

	stores := cache.NewStores(nil)
	if cfg.Redis.Enabled {
		rc := redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(rc); err != nil {
			return nil, err
		}
		stores = cache.NewStores(redis.StoreFactory(cfg.Redis, app.Logger))
		rc.ServeCache(stores)
	}

	conn := connector.New(
		connector.WithLogger(app.Logger),
		connector.WithMetrics(metrics),
		connector.WithStores(stores),
	)
	if err := conn.Preload(cfg.Endpoints...); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(conn); err != nil {
		return nil, err
	}

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, app.Logger)
		server.RegisterStatusRoutes(srv.GinEngine(), conn, cfg.Name)
		if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
			return nil, err
		}
	}
	return conn, nil
}
