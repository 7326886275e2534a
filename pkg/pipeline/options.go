package pipeline

import "github.com/askiada/gen192/pkg/pipeline/model"

// StepOption configures a step.
type StepOption func(s *model.StepInfo)

// StepConcurrency sets how many workers run the step function. Values below 1 mean 1.
func StepConcurrency(concurrent int) StepOption {
	return func(s *model.StepInfo) {
		s.Concurrent = concurrent
	}
}
