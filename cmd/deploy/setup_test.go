package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

func newTestContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("deploy", flag.ContinueOnError)
	for _, f := range append(globalFlags(), skipCloudAuthFlag, skipVerifyPushFlag, waitFlag, outputDirFlag) {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestOverrideDeployment(t *testing.T) {
	c := newTestContext(t,
		"--project", "aelita-bot",
		"--cluster", "aelita",
		"--zone", "us-central1-a",
		"--kubeconfig", "/tmp/kubeconfig",
		"--output-dir", "/tmp/rendered",
		"--skip-cloud-auth",
		"--skip-verify-push",
		"--wait",
	)
	deployment := model.Deployment{
		Project: "old",
		Push:    model.Push{Verify: true},
	}

	overrideDeployment(c, &deployment)

	assert.Equal(t, "aelita-bot", deployment.Project)
	assert.Equal(t, model.Cluster{Project: "aelita-bot", Zone: "us-central1-a", Name: "aelita"}, deployment.Cluster)
	assert.Equal(t, "/tmp/kubeconfig", deployment.Apply.Kubeconfig)
	assert.Equal(t, "/tmp/rendered", deployment.OutputDir)
	assert.True(t, deployment.Credential.SkipCloudAuth)
	assert.False(t, deployment.Push.Verify)
	assert.True(t, deployment.Apply.Wait)
}

func TestOverrideDeploymentKeepsConfig(t *testing.T) {
	t.Setenv("PROJECT_NAME", "")
	t.Setenv("CLUSTER_NAME", "")
	t.Setenv("CLOUDSDK_COMPUTE_ZONE", "")
	t.Setenv("KUBECONFIG", "")
	c := newTestContext(t)
	deployment := model.Deployment{
		Project: "aelita-bot",
		Cluster: model.Cluster{Project: "aelita-bot", Zone: "europe-west1-b", Name: "aelita"},
		Push:    model.Push{Verify: true},
	}
	expected := deployment

	overrideDeployment(c, &deployment)

	assert.Equal(t, expected, deployment)
}
