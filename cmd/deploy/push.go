package main

import (
	stdcontext "context"
	"fmt"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func push(ctx stdcontext.Context, logger applogger.Logger) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	published, err := dependencyContainer.Deployment().Push(ctx)
	if err != nil {
		return err
	}
	for _, image := range published {
		logger.Info(fmt.Sprintf("published %v %v after %v attempts", image.Reference, image.Digest, image.Attempts))
	}
	return nil
}
