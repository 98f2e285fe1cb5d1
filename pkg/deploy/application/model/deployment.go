package model

import (
	"path/filepath"
	"time"
)

type ComponentName = string

type Assets struct {
	From string
	To   string
}

type Component struct {
	Name       ComponentName
	Context    string
	Dockerfile string
	Assets     *Assets
}

type Variable struct {
	Name     string
	Optional bool
}

type Credential struct {
	EnvVar        string
	Path          string
	SkipCloudAuth bool
}

type Cluster struct {
	Project string
	Zone    string
	Name    string
}

type ApplyMode string

const (
	ApplyModeKubectl    ApplyMode = "kubectl"
	ApplyModeServerSide ApplyMode = "server-side"
)

type Apply struct {
	Mode         ApplyMode
	Namespace    string
	FieldManager string
	Kubeconfig   string
	Wait         bool
	Timeout      time.Duration
}

type Push struct {
	Attempts  int
	Delay     time.Duration
	Verify    bool
	PlainHTTP bool
}

type Tools struct {
	Gcloud  string
	Docker  string
	Kubectl string
}

type Deployment struct {
	Registry   string
	Project    string
	Components []Component
	Manifest   string
	Templates  []string
	OutputDir  string
	Variables  []Variable
	Credential Credential
	Cluster    Cluster
	Apply      Apply
	Push       Push
	Tools      Tools
}

// RenderTargets returns the manifest followed by the remaining templates.
func (d Deployment) RenderTargets() []string {
	return append([]string{d.Manifest}, d.Templates...)
}

// RenderedPath returns where the rendered copy of a template is written.
func (d Deployment) RenderedPath(path string) string {
	if d.OutputDir == "" {
		return path
	}
	return filepath.Join(d.OutputDir, filepath.Base(path))
}
