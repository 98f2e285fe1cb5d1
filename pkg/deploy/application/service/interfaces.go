package service

import (
	"context"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

type CredentialWriter interface {
	Write(encoded string, path string) error
}

type CloudAuthenticator interface {
	Authenticate(ctx context.Context, keyFile string, cluster model.Cluster) error
}

type TemplateRenderer interface {
	Scan(files []string, bindings []model.Binding) ([]model.PlaceholderStatus, error)
	Render(files []string, bindings []model.Binding, outputDir string) (model.RenderResult, error)
}

type ImageBuilder interface {
	Build(ctx context.Context, images []model.Image) error
}

type ImagePublisher interface {
	Push(ctx context.Context, images []model.Image) ([]model.PublishedImage, error)
}

type ManifestApplier interface {
	Apply(ctx context.Context, manifest string) ([]model.AppliedObject, error)
}

type RolloutWaiter interface {
	Wait(ctx context.Context, objects []model.AppliedObject) error
}

type RunReporter interface {
	Report(ctx context.Context, run model.Run) error
}
