package applier

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
)

func NewServerSideApplier(
	logger applogger.Logger,
	clients ClientFactory,
	config model.Apply,
) service.ManifestApplier {
	return &serverSideApplier{
		logger:  logger,
		clients: clients,
		config:  config,
	}
}

type serverSideApplier struct {
	logger  applogger.Logger
	clients ClientFactory
	config  model.Apply
}

// Apply sends every manifest object as a server-side apply patch, taking
// ownership of conflicting fields from other managers.
func (a serverSideApplier) Apply(ctx context.Context, manifest string) ([]model.AppliedObject, error) {
	objects, err := DecodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	clients, err := a.clients()
	if err != nil {
		return nil, err
	}
	applied := make([]model.AppliedObject, 0, len(objects))
	for _, object := range objects {
		gvk := object.GroupVersionKind()
		mapping, err := clients.Mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			return applied, errors.Wrapf(err, "failed to map %v", gvk.String())
		}
		namespace := ""
		if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
			namespace = object.GetNamespace()
			if namespace == "" {
				namespace = a.config.Namespace
			}
			object.SetNamespace(namespace)
		}
		a.logger.Info(fmt.Sprintf("apply %v \"%v\" in \"%v\"", gvk.Kind, object.GetName(), namespace))
		_, err = clients.Dynamic.Resource(mapping.Resource).Namespace(namespace).Apply(
			ctx,
			object.GetName(),
			object,
			metav1.ApplyOptions{
				FieldManager: a.config.FieldManager,
				Force:        true,
			},
		)
		if err != nil {
			return applied, errors.Wrapf(err, "failed to apply %v %v", gvk.Kind, object.GetName())
		}
		applied = append(applied, appliedObject(object, namespace))
	}
	return applied, nil
}
