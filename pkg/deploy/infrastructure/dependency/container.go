package dependency

import (
	"context"
	"errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/applier"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/builder"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/cloud"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/credentials"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/metrics"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/publisher"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/template"
)

type containerKey struct{}

type Container interface {
	Deployment() service.Deployment
}

type Options struct {
	SilentMode     bool
	PushgatewayURL string
}

func NewDependencyContainer(
	logger applogger.Logger,
	deployment model.Deployment,
	environment model.Environment,
	options Options,
) Container {
	runner := command.NewCommandRunner(logger, options.SilentMode)
	clients := applier.NewClientFactory(deployment.Apply.Kubeconfig)

	var resolver publisher.DigestResolver
	if deployment.Push.Verify {
		resolver = publisher.NewRegistryResolver(deployment.Push.PlainHTTP)
	}
	var manifestApplier service.ManifestApplier
	switch deployment.Apply.Mode {
	case model.ApplyModeServerSide:
		manifestApplier = applier.NewServerSideApplier(logger, clients, deployment.Apply)
	default:
		manifestApplier = applier.NewKubectlApplier(logger, runner, deployment.Tools.Kubectl, deployment.Apply)
	}
	var reporter service.RunReporter
	if options.PushgatewayURL != "" {
		reporter = metrics.NewPushgatewayReporter(logger, options.PushgatewayURL)
	}

	deploymentService := service.NewDeploymentService(deployment, environment, logger, service.Stages{
		CredentialWriter:   credentials.NewCredentialWriter(),
		CloudAuthenticator: cloud.NewGcloudAuthenticator(logger, runner, deployment.Tools.Gcloud),
		TemplateRenderer:   template.NewRenderer(),
		ImageBuilder:       builder.NewImageBuilder(logger, runner, deployment.Tools.Docker),
		ImagePublisher:     publisher.NewImagePublisher(logger, runner, deployment.Tools.Docker, deployment.Push, resolver),
		ManifestApplier:    manifestApplier,
		RolloutWaiter:      applier.NewRolloutWaiter(logger, clients, deployment.Apply.Timeout),
		RunReporter:        reporter,
	})

	return &container{
		deployment: deploymentService,
	}
}

type container struct {
	deployment service.Deployment
}

func (c *container) Deployment() service.Deployment {
	return c.deployment
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(containerKey{})
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, containerKey{}, c)
}
