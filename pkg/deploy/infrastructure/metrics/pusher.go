package metrics

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
	"github.com/tss-calculator/deploy/pkg/deploy/application/service"
)

const jobName = "deploy"

type runMetrics struct {
	stageDuration *prometheus.GaugeVec
	stageSuccess  *prometheus.GaugeVec
	lastRun       prometheus.Gauge
	pushAttempts  *prometheus.GaugeVec
}

func newRunMetrics() runMetrics {
	return runMetrics{
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deploy_stage_duration_seconds",
				Help: "Time taken by a pipeline stage",
			},
			[]string{"stage"},
		),
		stageSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deploy_stage_success",
				Help: "Whether a pipeline stage succeeded (1) or failed (0)",
			},
			[]string{"stage"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "deploy_last_run_timestamp_seconds",
				Help: "Unix time the pipeline run started",
			},
		),
		pushAttempts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deploy_image_push_attempts",
				Help: "Push attempts used per image",
			},
			[]string{"component"},
		),
	}
}

func (m runMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.stageDuration, m.stageSuccess, m.lastRun, m.pushAttempts}
}

func (m runMetrics) observe(run model.Run) {
	for _, step := range run.Steps {
		m.stageDuration.WithLabelValues(string(step.Step)).Set(step.Duration.Seconds())
		success := 1.0
		if step.Err != nil {
			success = 0
		}
		m.stageSuccess.WithLabelValues(string(step.Step)).Set(success)
	}
	if len(run.Steps) > 0 {
		m.lastRun.Set(float64(run.Steps[0].Started.Unix()))
	}
	for _, image := range run.Images {
		m.pushAttempts.WithLabelValues(image.Component.Name).Set(float64(image.Attempts))
	}
}

// NewPushgatewayReporter pushes the metrics of a finished run, grouped by its id.
func NewPushgatewayReporter(logger applogger.Logger, url string) service.RunReporter {
	return &pushgatewayReporter{
		logger: logger,
		url:    url,
	}
}

type pushgatewayReporter struct {
	logger applogger.Logger
	url    string
}

func (r *pushgatewayReporter) Report(ctx context.Context, run model.Run) error {
	m := newRunMetrics()
	m.observe(run)

	pusher := push.New(r.url, jobName).Grouping("run_id", run.ID)
	for _, collector := range m.collectors() {
		pusher = pusher.Collector(collector)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return errors.Wrapf(err, "failed to push metrics to %v", r.url)
	}
	r.logger.Debug(fmt.Sprintf("metrics of run %v pushed to %v", run.ID, r.url))
	return nil
}
