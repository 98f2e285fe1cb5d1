package main

import (
	"os"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/config/deployconfig"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

var (
	skipCloudAuthFlag = &cli.BoolFlag{
		Name:  "skip-cloud-auth",
		Usage: "write the credential only, kubeconfig is already present",
	}
	skipVerifyPushFlag = &cli.BoolFlag{
		Name:  "skip-verify-push",
		Usage: "do not resolve pushed tags against the registry",
	}
	waitFlag = &cli.BoolFlag{
		Name:  "wait",
		Usage: "wait for applied deployments to roll out",
	}
	outputDirFlag = &cli.StringFlag{
		Name:  "output-dir",
		Usage: "write rendered files here instead of in place",
	}
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Value:   "deploy.json",
			EnvVars: []string{"DEPLOY_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "build-number",
			EnvVars: []string{"BUILD_NUMBER", "CIRCLE_BUILD_NUM"},
		},
		&cli.StringFlag{
			Name:    "project",
			EnvVars: []string{"PROJECT_NAME"},
		},
		&cli.StringFlag{
			Name:    "cluster",
			EnvVars: []string{"CLUSTER_NAME"},
		},
		&cli.StringFlag{
			Name:    "zone",
			EnvVars: []string{"CLOUDSDK_COMPUTE_ZONE"},
		},
		&cli.StringFlag{
			Name:    "kubeconfig",
			EnvVars: []string{"KUBECONFIG"},
		},
		&cli.StringFlag{
			Name:    "pushgateway",
			EnvVars: []string{"PUSHGATEWAY_URL"},
		},
		&cli.BoolFlag{
			Name:    "silent",
			EnvVars: []string{"SILENT"},
		},
	}
}

func setupContainer(c *cli.Context, logger applogger.Logger) error {
	deployment, err := deployconfig.Load(c.String("config"))
	if err != nil {
		return errors.Wrap(err, "failed load deploy config")
	}
	overrideDeployment(c, &deployment)
	environment := deployconfig.LoadEnvironment(deployment, c.String("build-number"), os.LookupEnv)

	container := dependency.NewDependencyContainer(logger, deployment, environment, dependency.Options{
		SilentMode:     c.Bool("silent"),
		PushgatewayURL: c.String("pushgateway"),
	})
	c.Context = dependency.ContainerToContext(c.Context, container)
	return nil
}

func overrideDeployment(c *cli.Context, deployment *model.Deployment) {
	if project := c.String("project"); project != "" {
		deployment.Project = project
		deployment.Cluster.Project = project
	}
	if cluster := c.String("cluster"); cluster != "" {
		deployment.Cluster.Name = cluster
	}
	if zone := c.String("zone"); zone != "" {
		deployment.Cluster.Zone = zone
	}
	if kubeconfig := c.String("kubeconfig"); kubeconfig != "" {
		deployment.Apply.Kubeconfig = kubeconfig
	}
	if outputDir := c.String("output-dir"); outputDir != "" {
		deployment.OutputDir = outputDir
	}
	if c.Bool("skip-cloud-auth") {
		deployment.Credential.SkipCloudAuth = true
	}
	if c.Bool("skip-verify-push") {
		deployment.Push.Verify = false
	}
	if c.Bool("wait") {
		deployment.Apply.Wait = true
	}
}
