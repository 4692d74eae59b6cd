package model

import "strconv"

type StepType string

const (
	MarkerStepType   StepType = "marker"
	FuncStepType     StepType = "step"
	PipelineStepType StepType = "pipeline"
)

// StepInfo describes a registered step.
type StepInfo struct {
	Type     StepType
	Name     string
	Pipeline string
	// Index is the 1-based registration position. Markers use 0.
	Index int
	Args  int
}

// Key returns an identifier unique within one pipeline.
func (s *StepInfo) Key() string {
	if s.Index == 0 {
		return s.Name
	}

	return strconv.Itoa(s.Index) + ". " + s.Name
}

var (
	StartStep = &StepInfo{Type: MarkerStepType, Name: "start"}
	EndStep   = &StepInfo{Type: MarkerStepType, Name: "end"}
)

// Marker returns a copy of a start or end marker bound to a pipeline name.
func Marker(marker *StepInfo, pipeline string) *StepInfo {
	m := *marker
	m.Pipeline = pipeline

	return &m
}
