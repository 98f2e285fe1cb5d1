package model

import "time"

type Stage string

const (
	StageStart             Stage = "START"
	StageCredentialsLoaded Stage = "CREDENTIALS_LOADED"
	StageTemplatesRendered Stage = "TEMPLATES_RENDERED"
	StageImagesBuilt       Stage = "IMAGES_BUILT"
	StageImagesPushed      Stage = "IMAGES_PUSHED"
	StageManifestApplied   Stage = "MANIFEST_APPLIED"
	StageFailed            Stage = "FAILED"
)

type Step string

const (
	StepCredentials Step = "credentials"
	StepRender      Step = "render"
	StepBuild       Step = "build"
	StepPush        Step = "push"
	StepApply       Step = "apply"
)

// Completes returns the pipeline state reached when the step succeeds.
func (s Step) Completes() Stage {
	switch s {
	case StepCredentials:
		return StageCredentialsLoaded
	case StepRender:
		return StageTemplatesRendered
	case StepBuild:
		return StageImagesBuilt
	case StepPush:
		return StageImagesPushed
	case StepApply:
		return StageManifestApplied
	default:
		return StageFailed
	}
}

type StepResult struct {
	Step     Step
	Started  time.Time
	Duration time.Duration
	Err      error
}

type Run struct {
	ID      string
	Version Version
	State   Stage
	Steps   []StepResult
	Images  []PublishedImage
	Applied []AppliedObject
}

type AppliedObject struct {
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
}
