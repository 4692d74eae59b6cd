package measure

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/askiada/go-carry/pkg/pipeline/model"
)

// Prometheus exports step and run durations as Prometheus metrics.
type Prometheus struct {
	stepDuration *prometheus.HistogramVec
	runDuration  *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(namespace string, reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_step_duration_seconds",
				Help:      "Step computation time in seconds, cast included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "step"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Duration of successful pipeline runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of successful pipeline runs",
			},
			[]string{"pipeline"},
		),
	}

	for _, c := range []prometheus.Collector{p.stepDuration, p.runDuration, p.runsTotal} {
		err := reg.Register(c)
		if err != nil {
			return nil, errors.Wrap(err, "unable to register collector")
		}
	}

	return p, nil
}

type pipelinePrometheus struct {
	*Prometheus
}

func (pp *pipelinePrometheus) New() error {
	if pp.Prometheus == nil {
		return errors.New("prometheus collectors must be set")
	}

	return nil
}

func (pp *pipelinePrometheus) PrepareStep(_, _ *model.StepInfo) error {
	return nil
}

func (pp *pipelinePrometheus) OnStepOutput(step *model.StepInfo, computationDuration time.Duration) error {
	pp.stepDuration.WithLabelValues(step.Pipeline, step.Key()).Observe(computationDuration.Seconds())

	return nil
}

func (pp *pipelinePrometheus) Finish(endStep *model.StepInfo, totalDuration time.Duration) error {
	pp.runDuration.WithLabelValues(endStep.Pipeline).Observe(totalDuration.Seconds())
	pp.runsTotal.WithLabelValues(endStep.Pipeline).Inc()

	return nil
}

// PipelinePrometheus reports a pipeline's runs to collectors.
func PipelinePrometheus(collectors *Prometheus) model.PipelineOption {
	return &pipelinePrometheus{collectors}
}
