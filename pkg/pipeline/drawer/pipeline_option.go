package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-carry/pkg/pipeline/measure"
	"github.com/askiada/go-carry/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m        measure.Measure
	lastStep string
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Key(), map[string]string{"shape": "circle"})
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Key(), map[string]string{"shape": "doublecircle"})
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parentStep, step *model.StepInfo) error {
	attributes := map[string]string{"shape": "box"}
	if step.Type == model.PipelineStepType {
		attributes["shape"] = "box3d"
	}

	err := pd.AddStep(step.Key(), attributes)
	if err != nil {
		return err
	}
	err = pd.AddLink(parentStep.Key(), step.Key())
	if err != nil {
		return err
	}
	pd.lastStep = step.Key()

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(_ *model.StepInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish(endStep *model.StepInfo, totalDuration time.Duration) error {
	if pd.lastStep != "" {
		err := pd.AddLink(pd.lastStep, endStep.Key())
		if err != nil {
			return errors.Wrap(err, "unable to link last step")
		}
	}

	err := pd.SetTotalTime(endStep.Key(), totalDuration)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline after every run. The measure can be nil.
// When it is set, its hook must be registered before the drawer so the last run is included.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure}
}
