package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	version, err := NewVersion("42")
	require.NoError(t, err)
	assert.Equal(t, "v42", version)

	version, err = NewVersion(" 0\n")
	require.NoError(t, err)
	assert.Equal(t, "v0", version)

	for _, buildNumber := range []string{"", "  ", "v42", "-3", "4.2"} {
		_, err = NewVersion(buildNumber)
		assert.Error(t, err, buildNumber)
	}
}

func TestStepCompletes(t *testing.T) {
	assert.Equal(t, StageCredentialsLoaded, StepCredentials.Completes())
	assert.Equal(t, StageTemplatesRendered, StepRender.Completes())
	assert.Equal(t, StageImagesBuilt, StepBuild.Completes())
	assert.Equal(t, StageImagesPushed, StepPush.Completes())
	assert.Equal(t, StageManifestApplied, StepApply.Completes())
}

func TestRenderedPath(t *testing.T) {
	deployment := Deployment{Manifest: "deploy/kubernetes.yaml", Templates: []string{"nginx/nginx.conf"}}
	assert.Equal(t, "deploy/kubernetes.yaml", deployment.RenderedPath(deployment.Manifest))
	assert.Equal(t, []string{"deploy/kubernetes.yaml", "nginx/nginx.conf"}, deployment.RenderTargets())

	deployment.OutputDir = "/tmp/rendered"
	assert.Equal(t, "/tmp/rendered/kubernetes.yaml", deployment.RenderedPath(deployment.Manifest))
}
