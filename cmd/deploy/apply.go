package main

import (
	stdcontext "context"
	"fmt"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func apply(ctx stdcontext.Context, logger applogger.Logger) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	applied, err := dependencyContainer.Deployment().Apply(ctx)
	if err != nil {
		return err
	}
	for _, object := range applied {
		logger.Info(fmt.Sprintf("applied %v/%v %v/%v", object.APIVersion, object.Kind, object.Namespace, object.Name))
	}
	return nil
}
