package measure

import (
	"time"

	"github.com/askiada/go-carry/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.EndStep.Key())

	return nil
}

func (pm *pipelineMeasure) PrepareStep(_, step *model.StepInfo) error {
	pm.AddMetric(step.Key())

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(step *model.StepInfo, computationDuration time.Duration) error {
	pm.AddMetric(step.Key()).AddDuration(computationDuration)

	return nil
}

// Finish records the whole run on the end metric.
func (pm *pipelineMeasure) Finish(endStep *model.StepInfo, totalDuration time.Duration) error {
	mt := pm.AddMetric(endStep.Key())
	mt.AddDuration(totalDuration)
	mt.SetTotalDuration(totalDuration)

	return nil
}

// PipelineMeasure records the duration of every step and run of a pipeline in measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
