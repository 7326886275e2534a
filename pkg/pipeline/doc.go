// Package pipeline provides a staged batch runner.
//
// A pipeline is built from a root step producing elements, any number of one-to-one steps transforming them and a
// sink consuming them. Stages are connected with channels and each step may run several workers concurrently, so the
// order in which elements reach the sink is not guaranteed: elements should carry whatever identity the caller needs.
//
// The pipeline stops on the first error returned by a stage function and cancels every other stage. Stage functions
// that want to keep the batch going must report their failures as values instead of errors.
//
// Pipeline options (see the measure package) are notified when steps are prepared and every time an element goes
// through a step, which allows timing each stage without changing the stage functions.
package pipeline
