package service

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
	"github.com/pkg/errors"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

// ImageReferences tags every component as <registry>/<project>/<component>:<version>.
func ImageReferences(deployment model.Deployment, version model.Version) ([]model.Image, error) {
	registry := strings.TrimSuffix(deployment.Registry, "/")
	images := make([]model.Image, 0, len(deployment.Components))
	for _, component := range deployment.Components {
		ref := fmt.Sprintf("%v/%v/%v:%v", registry, deployment.Project, component.Name, version)
		named, err := reference.ParseNormalizedNamed(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid image reference %v", ref)
		}
		if _, ok := named.(reference.Tagged); !ok {
			return nil, errors.Errorf("image reference %v has no tag", ref)
		}
		images = append(images, model.Image{
			Component: component,
			Reference: ref,
		})
	}
	return images, nil
}
