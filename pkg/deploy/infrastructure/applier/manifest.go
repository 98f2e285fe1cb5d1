package applier

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

const decoderBufferSize = 4096

// DecodeManifest reads every document of a multi-document YAML or JSON
// manifest. Empty documents are skipped; "List" kinds are flattened.
func DecodeManifest(path string) ([]*unstructured.Unstructured, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %v", path)
	}
	defer file.Close()

	decoder := utilyaml.NewYAMLOrJSONDecoder(file, decoderBufferSize)
	var objects []*unstructured.Unstructured
	for {
		var raw map[string]interface{}
		err = decoder.Decode(&raw)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode manifest %v", path)
		}
		if len(raw) == 0 {
			continue
		}
		object := &unstructured.Unstructured{Object: raw}
		if object.IsList() {
			list, listErr := object.ToList()
			if listErr != nil {
				return nil, errors.Wrapf(listErr, "failed to read list in manifest %v", path)
			}
			for i := range list.Items {
				objects = append(objects, &list.Items[i])
			}
			continue
		}
		objects = append(objects, object)
	}
	for _, object := range objects {
		if object.GetKind() == "" || object.GetAPIVersion() == "" || object.GetName() == "" {
			return nil, errors.Errorf("manifest %v contains an object without apiVersion, kind or name", path)
		}
	}
	return objects, nil
}

func appliedObject(object *unstructured.Unstructured, namespace string) model.AppliedObject {
	return model.AppliedObject{
		APIVersion: object.GetAPIVersion(),
		Kind:       object.GetKind(),
		Namespace:  namespace,
		Name:       object.GetName(),
	}
}
