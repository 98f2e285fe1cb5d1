package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

type Stages struct {
	CredentialWriter   CredentialWriter
	CloudAuthenticator CloudAuthenticator
	TemplateRenderer   TemplateRenderer
	ImageBuilder       ImageBuilder
	ImagePublisher     ImagePublisher
	ManifestApplier    ManifestApplier
	RolloutWaiter      RolloutWaiter
	RunReporter        RunReporter
}

type Deployment interface {
	Deploy(ctx context.Context) (model.Run, error)
	LoadCredentials(ctx context.Context) error
	Check() ([]model.PlaceholderStatus, error)
	Render() (model.RenderResult, error)
	Build(ctx context.Context) error
	Push(ctx context.Context) ([]model.PublishedImage, error)
	Apply(ctx context.Context) ([]model.AppliedObject, error)
}

func NewDeploymentService(
	config model.Deployment,
	environment model.Environment,
	logger applogger.Logger,
	stages Stages,
) Deployment {
	return &deployment{
		config:      config,
		environment: environment,
		logger:      logger,
		stages:      stages,
	}
}

type deployment struct {
	config      model.Deployment
	environment model.Environment

	logger applogger.Logger
	stages Stages
}

type step struct {
	step   model.Step
	action func(ctx context.Context) error
}

func (service deployment) Deploy(ctx context.Context) (model.Run, error) {
	run := model.Run{
		ID:    uuid.NewString(),
		State: model.StageStart,
	}
	logger := service.logger.WithField("run_id", run.ID)
	defer service.report(ctx, logger, &run)

	version, err := model.NewVersion(service.environment.BuildNumber)
	if err != nil {
		run.State = model.StageFailed
		return run, err
	}
	run.Version = version
	if err = assertBuildInputsRendered(service.config); err != nil {
		run.State = model.StageFailed
		return run, err
	}
	images, err := ImageReferences(service.config, version)
	if err != nil {
		run.State = model.StageFailed
		return run, err
	}
	logger.Info(fmt.Sprintf("deploy version \"%v\" of %v images", version, len(images)))

	steps := []step{
		{model.StepCredentials, service.loadCredentials},
		{model.StepRender, func(context.Context) error {
			_, renderErr := service.render(version)
			return renderErr
		}},
		{model.StepBuild, func(ctx context.Context) error {
			return service.stages.ImageBuilder.Build(ctx, images)
		}},
		{model.StepPush, func(ctx context.Context) error {
			published, pushErr := service.stages.ImagePublisher.Push(ctx, images)
			run.Images = published
			return pushErr
		}},
		{model.StepApply, func(ctx context.Context) error {
			applied, applyErr := service.apply(ctx)
			run.Applied = applied
			return applyErr
		}},
	}
	for _, s := range steps {
		result := service.runStep(ctx, logger, s)
		run.Steps = append(run.Steps, result)
		if result.Err != nil {
			run.State = model.StageFailed
			logger.WithField("stage", s.step).Error(result.Err, fmt.Sprintf("step \"%v\" failed", s.step))
			return run, &StageError{Step: s.step, Err: result.Err}
		}
		run.State = s.step.Completes()
	}
	logger.Info(fmt.Sprintf("pipeline reached %v", run.State))
	return run, nil
}

func (service deployment) LoadCredentials(ctx context.Context) error {
	return service.loadCredentials(ctx)
}

func (service deployment) Check() ([]model.PlaceholderStatus, error) {
	version, err := model.NewVersion(service.environment.BuildNumber)
	if err != nil {
		service.logger.Debug(fmt.Sprintf("%v is unbound: %v", model.VersionVariable, err))
	}
	return service.stages.TemplateRenderer.Scan(service.config.RenderTargets(), service.bindings(version))
}

func (service deployment) Render() (model.RenderResult, error) {
	version, err := model.NewVersion(service.environment.BuildNumber)
	if err != nil {
		return model.RenderResult{}, err
	}
	return service.render(version)
}

func (service deployment) Build(ctx context.Context) error {
	if err := assertBuildInputsRendered(service.config); err != nil {
		return err
	}
	images, err := service.images()
	if err != nil {
		return err
	}
	return service.stages.ImageBuilder.Build(ctx, images)
}

func (service deployment) Push(ctx context.Context) ([]model.PublishedImage, error) {
	images, err := service.images()
	if err != nil {
		return nil, err
	}
	return service.stages.ImagePublisher.Push(ctx, images)
}

func (service deployment) Apply(ctx context.Context) ([]model.AppliedObject, error) {
	return service.apply(ctx)
}

func (service deployment) runStep(ctx context.Context, logger applogger.Logger, s step) model.StepResult {
	logger.Info(fmt.Sprintf("start %v...", s.step))
	start := time.Now()
	result := model.StepResult{Step: s.step, Started: start}
	if err := ctx.Err(); err != nil {
		result.Err = errors.Wrap(err, "pipeline interrupted")
		return result
	}
	result.Err = s.action(ctx)
	result.Duration = time.Since(start)
	logger.Info(fmt.Sprintf("done in %v", result.Duration.String()))
	return result
}

func (service deployment) loadCredentials(ctx context.Context) error {
	credential := service.config.Credential
	if service.environment.Credential == "" {
		return errors.Errorf("credential variable %v is not set", credential.EnvVar)
	}
	err := service.stages.CredentialWriter.Write(service.environment.Credential, credential.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to load credential from %v", credential.EnvVar)
	}
	service.logger.Info(fmt.Sprintf("credential written to \"%v\"", credential.Path))
	if credential.SkipCloudAuth {
		service.logger.Info("skip cloud authentication")
		return nil
	}
	return service.stages.CloudAuthenticator.Authenticate(ctx, credential.Path, service.config.Cluster)
}

func (service deployment) render(version model.Version) (model.RenderResult, error) {
	result, err := service.stages.TemplateRenderer.Render(
		service.config.RenderTargets(),
		service.bindings(version),
		service.config.OutputDir,
	)
	if err != nil {
		return model.RenderResult{}, err
	}
	for _, file := range result.Files {
		service.logger.Info(fmt.Sprintf("rendered \"%v\" (%v replacements)", file.Destination, file.Replacements))
	}
	return result, nil
}

func (service deployment) apply(ctx context.Context) ([]model.AppliedObject, error) {
	applied, err := service.stages.ManifestApplier.Apply(ctx, service.config.RenderedPath(service.config.Manifest))
	if err != nil {
		return nil, err
	}
	if !service.config.Apply.Wait {
		return applied, nil
	}
	return applied, service.stages.RolloutWaiter.Wait(ctx, applied)
}

func (service deployment) images() ([]model.Image, error) {
	version, err := model.NewVersion(service.environment.BuildNumber)
	if err != nil {
		return nil, err
	}
	return ImageReferences(service.config, version)
}

func (service deployment) bindings(version model.Version) []model.Binding {
	bindings := make([]model.Binding, 0, len(service.config.Variables)+3)
	bindings = append(bindings,
		model.Binding{Name: model.VersionVariable, Value: version},
		model.Binding{Name: model.RegistryVariable, Value: strings.TrimSuffix(service.config.Registry, "/")},
		model.Binding{Name: model.ProjectVariable, Value: service.config.Project},
	)
	for _, variable := range service.config.Variables {
		bindings = append(bindings, model.Binding{
			Name:     variable.Name,
			Value:    service.environment.Value(variable.Name),
			Optional: variable.Optional,
		})
	}
	return bindings
}

func (service deployment) report(ctx context.Context, logger applogger.Logger, run *model.Run) {
	if service.stages.RunReporter == nil {
		return
	}
	// the run is reported even when ctx was cancelled mid-pipeline
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := service.stages.RunReporter.Report(reportCtx, *run); err != nil {
		logger.Warning(err, "failed to report pipeline run")
	}
}
