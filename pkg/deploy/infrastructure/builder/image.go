package builder

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
)

func NewImageBuilder(
	logger applogger.Logger,
	runner command.Runner,
	docker string,
) service.ImageBuilder {
	return &imageBuilder{
		logger: logger,
		runner: runner,
		docker: docker,
	}
}

type imageBuilder struct {
	logger applogger.Logger
	runner command.Runner
	docker string
}

// Build builds images in order and stops at the first failure.
func (builder imageBuilder) Build(ctx stdcontext.Context, images []model.Image) error {
	for _, image := range images {
		if assets := image.Component.Assets; assets != nil {
			err := builder.prepareAssets(image.Component.Name, *assets)
			if err != nil {
				return err
			}
		}
		err := builder.buildDockerImage(ctx, image)
		if err != nil {
			return errors.Wrapf(err, "failed to build image %v", image.Reference)
		}
	}
	return nil
}

func (builder imageBuilder) prepareAssets(component model.ComponentName, assets model.Assets) error {
	builder.logger.Info(fmt.Sprintf("copy assets \"%v\" -> \"%v\" for \"%v\"...", assets.From, assets.To, component))
	count, err := CopyCompressed(assets.From, assets.To)
	if err != nil {
		return errors.Wrapf(err, "failed to prepare assets for %v", component)
	}
	builder.logger.Debug(fmt.Sprintf("compressed %v asset files", count))
	return nil
}

func (builder imageBuilder) buildDockerImage(ctx stdcontext.Context, image model.Image) error {
	builder.logger.Info(fmt.Sprintf("start build docker image \"%v\"...", image.Reference))
	start := time.Now()
	defer func() {
		builder.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	args := []string{"build", "-t", image.Reference}
	if image.Component.Dockerfile != "" {
		args = append(args, "-f", image.Component.Dockerfile)
	}
	args = append(args, image.Component.Context)
	_, err := builder.runner.Execute(ctx, command.Command{
		Executable: builder.docker,
		Args:       args,
		Verbose:    true,
	})
	return err
}
