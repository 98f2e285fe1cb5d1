package main

import (
	stdcontext "context"
	"fmt"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func deploy(ctx stdcontext.Context, logger applogger.Logger) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	run, err := dependencyContainer.Deployment().Deploy(ctx)
	if err != nil {
		return err
	}
	for _, image := range run.Images {
		logger.Info(fmt.Sprintf("published %v %v", image.Reference, image.Digest))
	}
	logger.Info(fmt.Sprintf("version %v deployed, %v objects applied", run.Version, len(run.Applied)))
	return nil
}
