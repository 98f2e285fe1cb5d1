package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()

	setup := func(c *cli.Context) error {
		return setupContainer(c, mainLogger)
	}

	app := &cli.App{
		Name:  "deploy",
		Usage: "render secrets into manifests, build and push images, apply to the cluster",
		Flags: globalFlags(),
		Commands: cli.Commands{
			&cli.Command{
				Name:   "deploy",
				Usage:  "run the full pipeline",
				Flags:  []cli.Flag{skipCloudAuthFlag, skipVerifyPushFlag, waitFlag, outputDirFlag},
				Before: setup,
				Action: func(c *cli.Context) error {
					return deploy(c.Context, mainLogger)
				},
			},
			&cli.Command{
				Name:   "credentials",
				Usage:  "write the service account key and authenticate the cloud CLI",
				Flags:  []cli.Flag{skipCloudAuthFlag},
				Before: setup,
				Action: func(c *cli.Context) error {
					return loadCredentials(c.Context)
				},
			},
			&cli.Command{
				Name:   "render",
				Usage:  "substitute placeholders in the manifest and templates",
				Flags:  []cli.Flag{outputDirFlag},
				Before: setup,
				Action: func(c *cli.Context) error {
					return render(c.Context)
				},
			},
			&cli.Command{
				Name:   "check",
				Usage:  "report placeholders and their bindings without writing",
				Before: setup,
				Action: func(c *cli.Context) error {
					return check(c.Context, mainLogger)
				},
			},
			&cli.Command{
				Name:   "build",
				Usage:  "build component images",
				Before: setup,
				Action: func(c *cli.Context) error {
					return build(c.Context)
				},
			},
			&cli.Command{
				Name:   "push",
				Usage:  "push component images to the registry",
				Flags:  []cli.Flag{skipVerifyPushFlag},
				Before: setup,
				Action: func(c *cli.Context) error {
					return push(c.Context, mainLogger)
				},
			},
			&cli.Command{
				Name:   "apply",
				Usage:  "apply the rendered manifest to the cluster",
				Flags:  []cli.Flag{waitFlag, outputDirFlag},
				Before: setup,
				Action: func(c *cli.Context) error {
					return apply(c.Context, mainLogger)
				},
			},
		},
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.FatalError(err, "failed execute command "+strings.Join(os.Args, " "))
	}
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
