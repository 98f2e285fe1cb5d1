package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/config/deployconfig"
	"github.com/tss-calculator/deploy/pkg/deploy/infrastructure/template"
)

const repositoryRoot = "../.."

func copyFile(t *testing.T, from, to string) {
	t.Helper()
	content, err := os.ReadFile(from)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(to), 0o755))
	require.NoError(t, os.WriteFile(to, content, 0o644))
}

// shippedDeployment loads the shipped config with its templates copied into
// a temporary directory, so rendering in place leaves the repository intact.
func shippedDeployment(t *testing.T, args ...string) model.Deployment {
	t.Helper()
	deployment, err := deployconfig.Load(filepath.Join(repositoryRoot, "deploy.example.json"))
	require.NoError(t, err)
	overrideDeployment(newTestContext(t, args...), &deployment)

	dir := t.TempDir()
	targets := deployment.RenderTargets()
	copies := make([]string, 0, len(targets))
	for _, target := range targets {
		destination := filepath.Join(dir, target)
		copyFile(t, filepath.Join(repositoryRoot, target), destination)
		copies = append(copies, destination)
	}
	deployment.Manifest = copies[0]
	deployment.Templates = copies[1:]
	return deployment
}

func shippedEnvironment(deployment model.Deployment) model.Environment {
	values := make(map[string]string, len(deployment.Variables))
	for _, variable := range deployment.Variables {
		if !variable.Optional {
			values[variable.Name] = "value-of-" + variable.Name
		}
	}
	return model.Environment{BuildNumber: "42", Values: values}
}

func rendererOnly(deployment model.Deployment) service.Deployment {
	return service.NewDeploymentService(deployment, shippedEnvironment(deployment), logger.NewTextLogger(), service.Stages{
		TemplateRenderer: template.NewRenderer(),
	})
}

func TestShippedTemplatesAreFullyBound(t *testing.T) {
	deployment := shippedDeployment(t)

	statuses, err := rendererOnly(deployment).Check()
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, status := range statuses {
		assert.True(t, status.Resolved, "%v: %v %v", filepath.Base(status.File), status.Name, status.Reason)
	}
}

func TestRenderedManifestPullsPushedImages(t *testing.T) {
	t.Setenv("PROJECT_NAME", "")
	for _, args := range [][]string{nil, {"--project", "other-project"}} {
		deployment := shippedDeployment(t, args...)

		_, err := rendererOnly(deployment).Render()
		require.NoError(t, err)

		manifest, err := os.ReadFile(deployment.Manifest)
		require.NoError(t, err)
		assert.NotContains(t, string(manifest), "INSERT_")

		images, err := service.ImageReferences(deployment, "v42")
		require.NoError(t, err)
		require.Len(t, images, 3)
		for _, image := range images {
			assert.Contains(t, string(manifest), "image: "+image.Reference)
		}
	}
}
