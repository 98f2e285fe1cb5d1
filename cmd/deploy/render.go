package main

import (
	stdcontext "context"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func render(ctx stdcontext.Context) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = dependencyContainer.Deployment().Render()
	return err
}
