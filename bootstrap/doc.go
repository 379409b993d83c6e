// Package bootstrap runs an application's lifecycle: validate config, start
// registered components, run hooks, then either block until a signal (Run)
// or execute a finite task (RunTask), and shut everything down in reverse.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(redisComponent)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return work(ctx)
//	})
package bootstrap
