package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/gen192/pkg/pipeline/model"
)

type oneToOneFn[I, O any] func(context.Context, I) (O, error)

func sequentialOneToOne[I, O any](
	ctx context.Context,
	goIdx int,
	opts []model.PipelineOption,
	input *model.Step[I],
	output *model.Step[O],
	fn oneToOneFn[I, O],
) error {
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}

			startFn := time.Now()
			out, err := fn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)

			// check the context again so that running go routines stop adding elements to the pipeline
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
			case output.Output <- out:
			}

			for _, opt := range opts {
				err := opt.OnStepOutput(input.Details, output.Details, time.Since(start), endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run on step output function")
				}
			}
		}
	}
}

func concurrentOneToOne[I, O any](
	ctx context.Context,
	opts []model.PipelineOption,
	input *model.Step[I],
	output *model.Step[O],
	fn oneToOneFn[I, O],
) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// each consumer stops as soon as one of them fails
	for goIdx := range output.Details.Concurrent {
		errGrp.Go(func() error {
			return sequentialOneToOne(dCtx, goIdx, opts, input, output, fn)
		})
	}

	return errGrp.Wait()
}

func oneToOne[I, O any](
	ctx context.Context,
	opts []model.PipelineOption,
	input *model.Step[I],
	output *model.Step[O],
	fn oneToOneFn[I, O],
) error {
	if output.Details.Concurrent <= 1 {
		return sequentialOneToOne(ctx, 0, opts, input, output, fn)
	}

	return concurrentOneToOne(ctx, opts, input, output, fn)
}

func prepareStep[I, O any](p *Pipeline, name string, input *model.Step[I], opts ...StepOption) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step.Details)
	}
	if step.Details.Concurrent < 1 {
		step.Details.Concurrent = 1
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	return step, nil
}

// AddStepOneToOne adds a step transforming every element of input with fn.
// The step output is closed once input is drained and every worker returned.
func AddStepOneToOne[I, O any](
	p *Pipeline,
	name string,
	input *model.Step[I],
	fn func(context.Context, I) (O, error),
	opts ...StepOption,
) (*model.Step[O], error) {
	step, err := prepareStep[I, O](p, name, input, opts...)
	if err != nil {
		return nil, err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()

		err := oneToOne(p.ctx, p.opts, input, step, fn)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}
