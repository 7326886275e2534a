package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/gen192/pkg/pipeline/model"
)

func prepareRootStep[O any](pipe *Pipeline, step *model.Step[O], opts ...StepOption) error {
	for _, opt := range opts {
		opt(step.Details)
	}
	for _, opt := range pipe.opts {
		err := opt.PrepareStep(model.StartStep, step.Details)
		if err != nil {
			return errors.Wrap(err, "unable to run before step function")
		}
	}

	return nil
}

// AddRootStep adds the step feeding the pipeline. stepFn must stop sending when ctx is done.
// The output channel is closed when stepFn returns.
func AddRootStep[O any](
	p *Pipeline,
	name string,
	stepFn func(ctx context.Context, rootChan chan<- O) error,
	opts ...StepOption,
) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	output := make(chan O)
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.RootStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: output,
	}

	err := prepareRootStep(p, step, opts...)
	if err != nil {
		return nil, err
	}

	go func() {
		defer func() {
			close(output)
			close(errC)
		}()

		err := stepFn(p.ctx, output)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}
