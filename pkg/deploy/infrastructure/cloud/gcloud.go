package cloud

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
)

func NewGcloudAuthenticator(logger applogger.Logger, runner command.Runner, executable string) service.CloudAuthenticator {
	return &gcloud{
		logger:     logger,
		runner:     runner,
		executable: executable,
	}
}

type gcloud struct {
	logger     applogger.Logger
	runner     command.Runner
	executable string
}

// Authenticate activates the service account and writes cluster credentials
// into the active kubeconfig.
func (g gcloud) Authenticate(ctx context.Context, keyFile string, cluster model.Cluster) error {
	if cluster.Project == "" || cluster.Zone == "" || cluster.Name == "" {
		return errors.Errorf("cluster is not fully specified (project %q, zone %q, name %q)", cluster.Project, cluster.Zone, cluster.Name)
	}
	steps := []struct {
		description string
		args        []string
	}{
		{"activate service account", []string{"auth", "activate-service-account", "--key-file", keyFile}},
		{"set project", []string{"config", "set", "project", cluster.Project}},
		{"set zone", []string{"config", "set", "compute/zone", cluster.Zone}},
		{"fetch cluster credentials", []string{"container", "clusters", "get-credentials", cluster.Name}},
	}
	for _, step := range steps {
		g.logger.Info(fmt.Sprintf("gcloud: %v", step.description))
		_, err := g.runner.Execute(ctx, command.Command{
			Executable: g.executable,
			Args:       step.args,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to %v", step.description)
		}
	}
	return nil
}
