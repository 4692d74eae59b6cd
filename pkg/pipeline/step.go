package pipeline

import (
	"github.com/askiada/go-carry/pkg/pipeline/model"
)

// Step is one unit of a pipeline.
// It receives the current carry, the input the run was started with, the run transport
// and the extra arguments given at registration, and returns the next carry.
type Step interface {
	Call(carry, initial any, t *Transport, args ...any) (any, error)
}

// StepFunc adapts an ordinary function to a Step.
type StepFunc func(carry, initial any, t *Transport, args ...any) (any, error)

func (f StepFunc) Call(carry, initial any, t *Transport, args ...any) (any, error) {
	return f(carry, initial, t, args...)
}

type namedStep struct {
	Step
	name string
}

// Named gives step a name used by logs and pipeline options.
func Named(name string, step Step) Step {
	return &namedStep{Step: step, name: name}
}

// registration is one registered occurrence of a step.
type registration struct {
	step    Step
	args    []any
	details *model.StepInfo
}

func describeStep(pipelineName string, index int, step Step, args []any) *model.StepInfo {
	info := &model.StepInfo{
		Type:     model.FuncStepType,
		Name:     "step",
		Pipeline: pipelineName,
		Index:    index,
		Args:     len(args),
	}

	inner := step
	if named, ok := step.(*namedStep); ok {
		info.Name = named.name
		inner = named.Step
	}
	if nested, ok := inner.(*Pipeline); ok {
		info.Type = model.PipelineStepType
		if _, isNamed := step.(*namedStep); !isNamed {
			info.Name = nested.Name()
		}
	}

	return info
}
