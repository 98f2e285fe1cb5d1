package applier

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
)

func NewKubectlApplier(
	logger applogger.Logger,
	runner command.Runner,
	kubectl string,
	config model.Apply,
) service.ManifestApplier {
	return &kubectlApplier{
		logger:  logger,
		runner:  runner,
		kubectl: kubectl,
		config:  config,
	}
}

type kubectlApplier struct {
	logger  applogger.Logger
	runner  command.Runner
	kubectl string
	config  model.Apply
}

// Apply hands the manifest to `kubectl apply`; the objects are decoded
// locally only so a rollout can be awaited afterwards.
func (a kubectlApplier) Apply(ctx context.Context, manifest string) ([]model.AppliedObject, error) {
	objects, err := DecodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	args := []string{"apply", "-f", manifest}
	if a.config.Kubeconfig != "" {
		args = append([]string{"--kubeconfig", a.config.Kubeconfig}, args...)
	}
	a.logger.Info(fmt.Sprintf("kubectl apply \"%v\"", manifest))
	output, err := a.runner.Execute(ctx, command.Command{
		Executable: a.kubectl,
		Args:       args,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to apply %v", manifest)
	}
	a.logger.Info(output)

	applied := make([]model.AppliedObject, 0, len(objects))
	for _, object := range objects {
		namespace := object.GetNamespace()
		if namespace == "" {
			namespace = a.config.Namespace
		}
		applied = append(applied, appliedObject(object, namespace))
	}
	return applied, nil
}
