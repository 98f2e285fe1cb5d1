package main

import (
	stdcontext "context"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func loadCredentials(ctx stdcontext.Context) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	return dependencyContainer.Deployment().LoadCredentials(ctx)
}
