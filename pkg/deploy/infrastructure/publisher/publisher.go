package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/command"
)

const backoffFactor = 2.0

func NewImagePublisher(
	logger applogger.Logger,
	runner command.Runner,
	docker string,
	push model.Push,
	resolver DigestResolver,
) service.ImagePublisher {
	return &publisher{
		logger:   logger,
		runner:   runner,
		docker:   docker,
		push:     push,
		resolver: resolver,
	}
}

type publisher struct {
	logger   applogger.Logger
	runner   command.Runner
	docker   string
	push     model.Push
	resolver DigestResolver
}

// Push publishes images one by one, retrying each with exponential backoff.
func (p publisher) Push(ctx context.Context, images []model.Image) ([]model.PublishedImage, error) {
	published := make([]model.PublishedImage, 0, len(images))
	for _, image := range images {
		result, err := p.pushImage(ctx, image)
		if err != nil {
			return published, err
		}
		published = append(published, result)
	}
	return published, nil
}

func (p publisher) pushImage(ctx context.Context, image model.Image) (model.PublishedImage, error) {
	logger := p.logger.WithField("image", image.Reference)
	logger.Info(fmt.Sprintf("start push \"%v\"...", image.Reference))
	start := time.Now()
	defer func() {
		logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()

	attempts := p.push.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := wait.Backoff{
		Duration: p.push.Delay,
		Factor:   backoffFactor,
		Steps:    attempts,
	}
	result := model.PublishedImage{Image: image}
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		result.Attempts++
		_, lastErr = p.runner.Execute(ctx, command.Command{
			Executable: p.docker,
			Args:       []string{"push", image.Reference},
			Verbose:    true,
		})
		if lastErr == nil {
			return true, nil
		}
		logger.Warning(lastErr, fmt.Sprintf("push attempt %v/%v failed", result.Attempts, attempts))
		return false, nil
	})
	if err != nil {
		if lastErr == nil || ctx.Err() != nil {
			lastErr = err
		}
		return result, errors.Wrapf(lastErr, "failed to push %v after %v attempts", image.Reference, result.Attempts)
	}

	if !p.push.Verify || p.resolver == nil {
		return result, nil
	}
	result.Digest, err = p.resolver.Resolve(ctx, image.Reference)
	if err != nil {
		return result, errors.Wrapf(err, "pushed image %v is not resolvable in the registry", image.Reference)
	}
	logger.Info(fmt.Sprintf("registry has %v", result.Digest))
	return result, nil
}
