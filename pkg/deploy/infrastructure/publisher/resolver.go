package publisher

import (
	"context"
	"net/http"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// DigestResolver looks up the manifest digest a tag points to.
type DigestResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

var manifestMediaTypes = []string{
	ocispec.MediaTypeImageManifest,
	ocispec.MediaTypeImageIndex,
	"application/vnd.docker.distribution.manifest.v2+json",
	"application/vnd.docker.distribution.manifest.list.v2+json",
}

// NewRegistryResolver authenticates with the Docker credential store, the
// same one `docker push` used.
func NewRegistryResolver(plainHTTP bool) DigestResolver {
	client := &auth.Client{
		Client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Cache:  auth.NewCache(),
	}
	if store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{}); err == nil {
		client.Credential = credentials.Credential(store)
	}
	return &registryResolver{
		client:    client,
		plainHTTP: plainHTTP,
	}
}

type registryResolver struct {
	client    remote.Client
	plainHTTP bool
}

func (r registryResolver) Resolve(ctx context.Context, ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", errors.Wrapf(err, "invalid image reference %v", ref)
	}
	tagged, ok := named.(reference.Tagged)
	if !ok {
		return "", errors.Errorf("image reference %v has no tag", ref)
	}
	repo, err := remote.NewRepository(reference.TrimNamed(named).String())
	if err != nil {
		return "", errors.Wrapf(err, "failed to initialize remote repository for %v", ref)
	}
	repo.PlainHTTP = r.plainHTTP
	repo.Client = r.client
	repo.ManifestMediaTypes = manifestMediaTypes

	desc, err := repo.Resolve(ctx, tagged.Tag())
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %v", ref)
	}
	return desc.Digest.String(), nil
}
