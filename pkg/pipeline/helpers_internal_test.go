package pipeline

import (
	"context"
	"testing"
	"time"
)

func createInputChan(t *testing.T, total int) chan int {
	t.Helper()

	inputChan := make(chan int)

	go func() {
		defer close(inputChan)

		for i := range total {
			inputChan <- i
		}
	}()

	return inputChan
}

// createInputChanWithCancel cancels once offset is reached and keeps sending until nobody listens.
func createInputChanWithCancel(t *testing.T, total int, offset int, cancel context.CancelFunc) chan int {
	t.Helper()

	inputChan := make(chan int)

	go func() {
		defer close(inputChan)

		for i := range total {
			if i == offset {
				cancel()
			}

			select {
			case inputChan <- i:
			case <-time.After(time.Second):
				return
			}
		}
	}()

	return inputChan
}

// createInputChanWithCancelOnError stops sending when ctx is done.
func createInputChanWithCancelOnError(ctx context.Context, t *testing.T, total int) chan int {
	t.Helper()

	inputChan := make(chan int)

	go func() {
		defer close(inputChan)

		for i := range total {
			select {
			case inputChan <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	return inputChan
}

func processOutputChan(t *testing.T, output <-chan int) []int {
	t.Helper()

	res := []int{}

	for out := range output {
		res = append(res, out)
	}

	return res
}
