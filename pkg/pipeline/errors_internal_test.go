package pipeline

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errMerge   = errors.New("merge failed")
	errPersist = errors.New("persist failed")
)

func TestErrorChansAllWhileAdding(t *testing.T) {
	t.Parallel()

	ecs := &errorChans{}
	const stages = 20

	var wg sync.WaitGroup
	wg.Add(2 * stages)
	for i := range stages {
		go func() {
			defer wg.Done()
			ecs.add(newErrorChan("stage "+strconv.Itoa(i), nil))
		}()
		go func() {
			defer wg.Done()
			snapshot := ecs.all()
			assert.LessOrEqual(t, len(snapshot), stages)
		}()
	}
	wg.Wait()

	all := ecs.all()
	require.Len(t, all, stages)
	names := make([]string, 0, len(all))
	for _, ec := range all {
		names = append(names, ec.name)
	}
	sort.Strings(names)
	assert.Equal(t, "stage 0", names[0])

	// the snapshot is a copy
	all[0] = nil
	assert.NotNil(t, ecs.all()[0])
}

func TestNewErrorChan(t *testing.T) {
	t.Parallel()

	c := make(chan error)
	assert.Equal(t, &errorChan{name: "persist", c: c}, newErrorChan("persist", c))
	assert.Equal(t, &errorChan{name: "enumerate"}, newErrorChan("enumerate", nil))
}

func collect(c <-chan error) []error {
	errs := []error{}
	for err := range c {
		errs = append(errs, err)
	}
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Error() < errs[j].Error()
	})

	return errs
}

func TestMergeErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		sent     map[string][]error
		expected []string
	}{
		"no stage channel": {
			sent:     map[string][]error{"enumerate": nil, "report": nil},
			expected: []string{},
		},
		"one failing stage": {
			sent:     map[string][]error{"enumerate": nil, "merge": {errMerge}},
			expected: []string{"merge: merge failed"},
		},
		"every stage prefixed": {
			sent:     map[string][]error{"merge": {errMerge}, "persist": {errPersist, errMerge}},
			expected: []string{"merge: merge failed", "persist: merge failed", "persist: persist failed"},
		},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ecs := make([]*errorChan, 0, len(tc.sent))
			for stage, errs := range tc.sent {
				if errs == nil {
					ecs = append(ecs, newErrorChan(stage, nil))

					continue
				}
				c := make(chan error)
				ecs = append(ecs, newErrorChan(stage, c))
				go func() {
					defer close(c)
					for _, err := range errs {
						c <- err
					}
				}()
			}

			got := collect(mergeErrors(ecs...))
			msgs := make([]string, 0, len(got))
			for _, err := range got {
				msgs = append(msgs, err.Error())
			}
			assert.Equal(t, tc.expected, msgs)

			for _, err := range got {
				assert.True(t, errors.Is(err, errMerge) || errors.Is(err, errPersist))
			}
		})
	}
}

func TestMergeErrorsUnreadDoesNotBlock(t *testing.T) {
	t.Parallel()

	stages := []string{"root", "merge", "persist", "sink"}
	ecs := make([]*errorChan, 0, len(stages))
	for _, stage := range stages {
		c := make(chan error, 1)
		c <- errors.New(stage + " failed")
		close(c)
		ecs = append(ecs, newErrorChan(stage, c))
	}

	out := mergeErrors(ecs...)
	first, ok := <-out
	require.True(t, ok)
	require.Error(t, first)

	// the remaining errors fit in the buffer, so the channel still closes
	rest := collect(out)
	assert.Len(t, rest, len(stages)-1)
}
