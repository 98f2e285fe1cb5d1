package applier

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/ptr"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
)

const rolloutPollInterval = 2 * time.Second

func NewRolloutWaiter(
	logger applogger.Logger,
	clients ClientFactory,
	timeout time.Duration,
) service.RolloutWaiter {
	return &rolloutWaiter{
		logger:   logger,
		clients:  clients,
		timeout:  timeout,
		interval: rolloutPollInterval,
	}
}

type rolloutWaiter struct {
	logger   applogger.Logger
	clients  ClientFactory
	timeout  time.Duration
	interval time.Duration
}

// Wait blocks until every applied Deployment has rolled out. Other kinds are
// accepted as soon as the apply succeeded.
func (w rolloutWaiter) Wait(ctx context.Context, objects []model.AppliedObject) error {
	clients, err := w.clients()
	if err != nil {
		return err
	}
	for _, object := range objects {
		if object.Kind != "Deployment" || object.APIVersion != appsv1.SchemeGroupVersion.String() {
			continue
		}
		w.logger.Info(fmt.Sprintf("wait for rollout of deployment \"%v/%v\"...", object.Namespace, object.Name))
		start := time.Now()
		var message string
		err = wait.PollUntilContextTimeout(ctx, w.interval, w.timeout, true, func(ctx context.Context) (bool, error) {
			deployment, getErr := clients.Kubernetes.AppsV1().Deployments(object.Namespace).Get(ctx, object.Name, metav1.GetOptions{})
			if apierrors.IsNotFound(getErr) {
				message = "deployment not found yet"
				return false, nil
			}
			if getErr != nil {
				return false, getErr
			}
			var (
				done      bool
				statusErr error
			)
			done, message, statusErr = rolloutStatus(deployment)
			return done, statusErr
		})
		if err != nil {
			return errors.Wrapf(err, "deployment %v/%v did not roll out: %v", object.Namespace, object.Name, message)
		}
		w.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}
	return nil
}

// rolloutStatus follows the checks of `kubectl rollout status`. An exceeded
// progress deadline is terminal.
func rolloutStatus(deployment *appsv1.Deployment) (bool, string, error) {
	if deployment.Generation > deployment.Status.ObservedGeneration {
		return false, "waiting for deployment spec update to be observed", nil
	}
	for _, condition := range deployment.Status.Conditions {
		if condition.Type == appsv1.DeploymentProgressing && condition.Reason == "ProgressDeadlineExceeded" {
			message := fmt.Sprintf("progress deadline exceeded: %v", condition.Message)
			return false, message, errors.New(message)
		}
	}
	replicas := ptr.Deref(deployment.Spec.Replicas, 1)
	status := deployment.Status
	switch {
	case status.UpdatedReplicas < replicas:
		return false, fmt.Sprintf("%v of %v updated replicas", status.UpdatedReplicas, replicas), nil
	case status.Replicas > status.UpdatedReplicas:
		return false, fmt.Sprintf("%v old replicas pending termination", status.Replicas-status.UpdatedReplicas), nil
	case status.AvailableReplicas < status.UpdatedReplicas:
		return false, fmt.Sprintf("%v of %v updated replicas available", status.AvailableReplicas, status.UpdatedReplicas), nil
	}
	return true, "", nil
}
