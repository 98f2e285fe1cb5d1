package applier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

func newRESTMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper(nil)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, meta.RESTScopeRoot)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Service"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, meta.RESTScopeNamespace)
	return mapper
}

func recordApplies(client *dynamicfake.FakeDynamicClient) *[]k8stesting.PatchAction {
	var patches []k8stesting.PatchAction
	client.PrependReactor("patch", "*", func(action k8stesting.Action) (bool, runtime.Object, error) {
		patch := action.(k8stesting.PatchAction)
		patches = append(patches, patch)
		object := &unstructured.Unstructured{}
		if err := object.UnmarshalJSON(patch.GetPatch()); err != nil {
			return true, nil, err
		}
		return true, object, nil
	})
	return &patches
}

func TestServerSideApply(t *testing.T) {
	client := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	patches := recordApplies(client)
	factory := func() (Clients, error) {
		return Clients{Dynamic: client, Mapper: newRESTMapper()}, nil
	}
	a := NewServerSideApplier(logger.NewTextLogger(), factory, model.Apply{Namespace: "bots", FieldManager: "deploy"})

	applied, err := a.Apply(context.Background(), writeManifest(t, manifest))
	require.NoError(t, err)
	assert.Equal(t, []model.AppliedObject{
		{APIVersion: "v1", Kind: "Namespace", Name: "aelita"},
		{APIVersion: "apps/v1", Kind: "Deployment", Namespace: "aelita", Name: "aelita"},
		{APIVersion: "v1", Kind: "Service", Namespace: "bots", Name: "nginx"},
	}, applied)

	require.Len(t, *patches, 3)
	for _, patch := range *patches {
		assert.Equal(t, types.ApplyPatchType, patch.GetPatchType())
	}
	assert.Equal(t, "namespaces", (*patches)[0].GetResource().Resource)
	assert.Empty(t, (*patches)[0].GetNamespace())
	assert.Equal(t, "deployments", (*patches)[1].GetResource().Resource)
	assert.Equal(t, "aelita", (*patches)[1].GetNamespace())
	assert.Equal(t, "bots", (*patches)[2].GetNamespace())
	assert.Equal(t, "nginx", (*patches)[2].GetName())
}

func TestServerSideApplyUnknownKind(t *testing.T) {
	client := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	patches := recordApplies(client)
	mapper := meta.NewDefaultRESTMapper(nil)
	factory := func() (Clients, error) {
		return Clients{Dynamic: client, Mapper: mapper}, nil
	}
	a := NewServerSideApplier(logger.NewTextLogger(), factory, model.Apply{Namespace: "default"})

	_, err := a.Apply(context.Background(), writeManifest(t, manifest))
	require.Error(t, err)
	assert.Empty(t, *patches)
}

func TestServerSideApplyStopsOnRejectedObject(t *testing.T) {
	client := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	patches := recordApplies(client)
	client.PrependReactor("patch", "deployments", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("admission webhook denied the request")
	})
	factory := func() (Clients, error) {
		return Clients{Dynamic: client, Mapper: newRESTMapper()}, nil
	}
	a := NewServerSideApplier(logger.NewTextLogger(), factory, model.Apply{Namespace: "default"})

	applied, err := a.Apply(context.Background(), writeManifest(t, manifest))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admission webhook denied")
	assert.Len(t, applied, 1)
	assert.Len(t, *patches, 1, "the service after the rejected deployment is not applied")
}

func TestServerSideApplyClientError(t *testing.T) {
	factory := func() (Clients, error) {
		return Clients{}, errors.New("no kubeconfig")
	}
	a := NewServerSideApplier(logger.NewTextLogger(), factory, model.Apply{})

	_, err := a.Apply(context.Background(), writeManifest(t, manifest))
	require.EqualError(t, err, "no kubeconfig")
}
