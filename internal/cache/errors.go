package cache

import (
	"errors"
	"fmt"
)

// Step names the backend operation a PersistenceError came from.
type Step string

const (
	StepGeneral     Step = "general"
	StepCurrencies  Step = "currencies"
	StepInstruments Step = "instruments"
	StepSynthetics  Step = "synthetics"
	StepOrders      Step = "orders"
	StepPositions   Step = "positions"
	StepPut         Step = "put"
	StepFlush       Step = "flush"
	StepClose       Step = "close"
	StepSave        Step = "save"
)

// HydrationSteps is the order Hydrate loads categories in.
var HydrationSteps = []Step{
	StepGeneral,
	StepCurrencies,
	StepInstruments,
	StepSynthetics,
	StepOrders,
	StepPositions,
}

// PersistenceError wraps a backend failure with the step that triggered it.
type PersistenceError struct {
	Step Step
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Step: step, Err: err}
}

var (
	ErrDisposed          = errors.New("cache disposed")
	ErrDuplicateOrder    = errors.New("order already cached")
	ErrDuplicatePosition = errors.New("position already cached")
	ErrUnknownOrder      = errors.New("order not cached")
	ErrUnknownPosition   = errors.New("position not cached")
)
