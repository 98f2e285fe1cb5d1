package main

import (
	stdcontext "context"
	"fmt"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/dependency"
)

func check(ctx stdcontext.Context, logger applogger.Logger) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	statuses, err := dependencyContainer.Deployment().Check()
	if err != nil {
		return err
	}
	unresolved := 0
	for _, status := range statuses {
		if status.Resolved {
			logger.Info(fmt.Sprintf("%v: %v x%v bound", status.File, status.Name, status.Count))
			continue
		}
		unresolved++
		logger.Info(fmt.Sprintf("%v: %v x%v unresolved (%v)", status.File, status.Name, status.Count, status.Reason))
	}
	if unresolved > 0 {
		return errors.Errorf("%v placeholders unresolved", unresolved)
	}
	return nil
}
