package applier

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Clients bundles what the server-side applier and rollout waiter need.
type Clients struct {
	Kubernetes kubernetes.Interface
	Dynamic    dynamic.Interface
	Mapper     meta.RESTMapper
}

type ClientFactory func() (Clients, error)

// NewClientFactory returns a factory that builds clients on first use. The
// kubeconfig is usually written by the credentials step of the same run, so
// it cannot be read at startup.
func NewClientFactory(kubeconfig string) ClientFactory {
	var (
		once    sync.Once
		clients Clients
		err     error
	)
	return func() (Clients, error) {
		once.Do(func() {
			clients, err = buildClients(kubeconfig)
		})
		return clients, err
	}
}

func buildClients(kubeconfig string) (Clients, error) {
	config, err := restConfig(kubeconfig)
	if err != nil {
		return Clients{}, err
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return Clients{}, errors.Wrap(err, "failed to create kubernetes client")
	}
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return Clients{}, errors.Wrap(err, "failed to create dynamic client")
	}
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return Clients{}, errors.Wrap(err, "failed to create discovery client")
	}
	return Clients{
		Kubernetes: clientset,
		Dynamic:    dynamicClient,
		Mapper:     restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient)),
	}, nil
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
		if _, err := os.Stat(kubeconfig); os.IsNotExist(err) {
			kubeconfig = ""
		}
	}
	if kubeconfig == "" {
		config, err := rest.InClusterConfig()
		return config, errors.Wrap(err, "failed to get in-cluster config")
	}
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	return config, errors.Wrapf(err, "failed to build kube config from %v", kubeconfig)
}
